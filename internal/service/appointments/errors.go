package appointments

import "errors"

var (
	// ErrValidation возвращается при отсутствии обязательных полей или неверном формате
	ErrValidation = errors.New("appointments: validation failed")

	// ErrPersistence возвращается, когда хранилище отклонило чтение или запись
	ErrPersistence = errors.New("appointments: persistence error")

	// ErrNotFound возвращается, когда обновление не затронуло ни одной записи
	ErrNotFound = errors.New("appointments: appointment not found")

	// ErrUnauthenticated возвращается для операций без пользователя в сессии
	ErrUnauthenticated = errors.New("appointments: session has no user")

	// ErrAccessDenied возвращается, когда роль сессии не позволяет операцию
	ErrAccessDenied = errors.New("appointments: access denied")
)
