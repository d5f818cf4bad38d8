package models

import (
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// BookAppointmentRequest запрос на запись в очередь. Пользователь берется из сессии.
type BookAppointmentRequest struct {
	ServiceID     string
	Date          time.Time
	Time          types.TimeString
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
}

// ListAppointmentsRequest фильтр списка записей для персонала
type ListAppointmentsRequest struct {
	ServiceID *string
	Date      *time.Time
	Status    *domain.AppointmentStatus
	Limit     uint64
}

// ToDomainFilter конвертирует запрос в domain фильтр.
// Сортировка как у общей ленты: сначала последние даты.
func (r *ListAppointmentsRequest) ToDomainFilter() domain.AppointmentFilter {
	filter := domain.AppointmentFilter{
		ServiceID: r.ServiceID,
		Date:      r.Date,
		OrderBy:   domain.OrderByAppointmentDate,
		Desc:      true,
		Limit:     r.Limit,
	}
	if r.Status != nil {
		filter.Statuses = []domain.AppointmentStatus{*r.Status}
	}
	return filter
}
