package get_service_queue

import (
	"context"
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	GetServiceQueue(ctx context.Context, serviceID string, date time.Time) (*domain.ServiceQueue, error)
	Today() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
