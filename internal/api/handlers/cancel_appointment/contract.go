package cancel_appointment

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	CancelAppointment(ctx context.Context, session domain.Session, id string) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
