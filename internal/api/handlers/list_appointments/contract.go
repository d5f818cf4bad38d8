package list_appointments

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
)

type AppointmentService interface {
	ListAppointments(ctx context.Context, session domain.Session, req *models.ListAppointmentsRequest) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
