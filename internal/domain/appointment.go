package domain

import (
	"time"

	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusWaiting   AppointmentStatus = "waiting"
	StatusServed    AppointmentStatus = "served"
	StatusCancelled AppointmentStatus = "cancelled"
	// StatusNoShow зарезервирован, переходов в него нет
	StatusNoShow AppointmentStatus = "no_show"
)

// IsValid returns true for a known status
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusWaiting, StatusServed, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment represents a customer's booking of a slot in a service queue
type Appointment struct {
	ID              string
	UserID          string
	ServiceID       string
	AppointmentDate time.Time
	AppointmentTime types.TimeString
	QueueNumber     string
	Status          AppointmentStatus

	// Снимок данных клиента на момент записи
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string

	ServedAt    *time.Time
	ServedBy    *string
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWaiting returns true if the appointment still occupies its slot
func (a *Appointment) IsWaiting() bool {
	return a.Status == StatusWaiting
}

// IsServed returns true if the appointment has been served
func (a *Appointment) IsServed() bool {
	return a.Status == StatusServed
}

// IsCancelled returns true if the appointment has been cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// BelongsTo returns true if the appointment was booked by the user
func (a *Appointment) BelongsTo(userID string) bool {
	return a.UserID == userID
}

// AppointmentFilter фильтр выборки записей: равенство по заполненным полям,
// Statuses работает как IN, сортировка по одному ключу
type AppointmentFilter struct {
	ID        *string
	UserID    *string
	ServiceID *string
	Date      *time.Time
	Statuses  []AppointmentStatus
	OrderBy   AppointmentOrder
	Desc      bool
	Limit     uint64
}

// AppointmentOrder ключ сортировки записей
type AppointmentOrder string

const (
	OrderByCreatedAt       AppointmentOrder = "created_at"
	OrderByAppointmentDate AppointmentOrder = "appointment_date"
	OrderByAppointmentTime AppointmentOrder = "appointment_time"
)

// AppointmentPatch частичное обновление записи. Nil поля не меняются.
// queue_number сюда не входит: он назначается один раз при создании.
type AppointmentPatch struct {
	Status      *AppointmentStatus
	ServedAt    *time.Time
	ServedBy    *string
	CancelledAt *time.Time
	// ClearServed сбрасывает served_at/served_by (отмена уже обслуженной записи)
	ClearServed bool
	UpdatedAt   time.Time
}
