package get_stats

import (
	"context"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

type AppointmentService interface {
	GetTodayStats(ctx context.Context, session domain.Session) (*domain.Stats, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
