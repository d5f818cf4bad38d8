package create_appointment

import (
	"github.com/m04kA/SMC-QueueService/internal/api/handlers"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
	"github.com/m04kA/SMC-QueueService/pkg/types"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ServiceID       string  `json:"serviceId"`
	AppointmentDate string  `json:"appointmentDate"` // YYYY-MM-DD
	AppointmentTime string  `json:"appointmentTime"` // HH:MM
	CustomerName    string  `json:"customerName"`
	CustomerEmail   *string `json:"customerEmail,omitempty"`
	CustomerPhone   *string `json:"customerPhone,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса.
// Формат времени проверяет сервис.
func (r *CreateAppointmentRequest) ToServiceRequest() (*models.BookAppointmentRequest, error) {
	date, err := handlers.ParseDate(r.AppointmentDate)
	if err != nil {
		return nil, err
	}

	return &models.BookAppointmentRequest{
		ServiceID:     r.ServiceID,
		Date:          date,
		Time:          types.TimeString(r.AppointmentTime),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
	}, nil
}
