package get_analytics

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	GetAnalytics(ctx context.Context, session domain.Session) (*domain.Analytics, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
