package create_appointment

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/service/appointments/models"
)

type AppointmentService interface {
	BookAppointment(ctx context.Context, session domain.Session, req *models.BookAppointmentRequest) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
