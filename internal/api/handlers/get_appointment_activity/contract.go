package get_appointment_activity

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	GetAppointmentActivity(ctx context.Context, session domain.Session, id string) ([]*domain.StaffActivityLog, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
