package handlers

import (
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// AppointmentResponse HTTP модель записи, общая для всех ручек записей
type AppointmentResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	ServiceID       string     `json:"serviceId"`
	AppointmentDate string     `json:"appointmentDate"`
	AppointmentTime string     `json:"appointmentTime"`
	QueueNumber     string     `json:"queueNumber"`
	Status          string     `json:"status"`
	CustomerName    string     `json:"customerName"`
	CustomerEmail   *string    `json:"customerEmail,omitempty"`
	CustomerPhone   *string    `json:"customerPhone,omitempty"`
	ServedAt        *time.Time `json:"servedAt,omitempty"`
	ServedBy        *string    `json:"servedBy,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// FromAppointment конвертирует domain модель в HTTP response
func FromAppointment(a *domain.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		ServiceID:       a.ServiceID,
		AppointmentDate: a.AppointmentDate.Format(domain.DateFormat),
		AppointmentTime: a.AppointmentTime.String(),
		QueueNumber:     a.QueueNumber,
		Status:          string(a.Status),
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		CustomerPhone:   a.CustomerPhone,
		ServedAt:        a.ServedAt,
		ServedBy:        a.ServedBy,
		CancelledAt:     a.CancelledAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// FromAppointments конвертирует список записей
func FromAppointments(list []*domain.Appointment) []*AppointmentResponse {
	result := make([]*AppointmentResponse, len(list))
	for i, a := range list {
		result[i] = FromAppointment(a)
	}
	return result
}

// ServiceResponse HTTP модель услуги
type ServiceResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Description           *string   `json:"description,omitempty"`
	AvgServiceTimeMinutes int       `json:"avgServiceTimeMinutes"`
	CapacityPerSlot       int       `json:"capacityPerSlot"`
	IsActive              bool      `json:"isActive"`
	CreatedAt             time.Time `json:"createdAt"`
}

// FromService конвертирует domain модель услуги в HTTP response
func FromService(s *domain.Service) *ServiceResponse {
	return &ServiceResponse{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           s.Description,
		AvgServiceTimeMinutes: s.AvgServiceTimeMinutes,
		CapacityPerSlot:       s.CapacityPerSlot,
		IsActive:              s.IsActive,
		CreatedAt:             s.CreatedAt,
	}
}
