package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-QueueService/pkg/types"
)

type AppointmentService interface {
	ComputeAvailableSlots(ctx context.Context, serviceID string, date time.Time) ([]types.TimeString, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
