package catalog

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("catalog: service not found")

	// ErrServiceAlreadyExists возвращается при совпадении названия с существующей услугой
	ErrServiceAlreadyExists = errors.New("catalog: service already exists")

	// ErrAccessDenied возвращается, когда у пользователя нет прав администратора
	ErrAccessDenied = errors.New("catalog: access denied")

	// ErrUnauthenticated возвращается для операций без пользователя в сессии
	ErrUnauthenticated = errors.New("catalog: session has no user")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("catalog: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("catalog: internal error")
)
