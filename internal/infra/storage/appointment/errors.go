package appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена (или update не затронул строк)
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")

	// ErrUnknownService возвращается при создании записи на несуществующую услугу
	ErrUnknownService = errors.New("appointment.repository: unknown service")

	// ErrEmptyPatch возвращается, если в обновлении нет ни одного поля
	ErrEmptyPatch = errors.New("appointment.repository: empty patch")
)
