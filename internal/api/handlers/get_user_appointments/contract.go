package get_user_appointments

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	GetUserAppointments(ctx context.Context, session domain.Session, userID string) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
