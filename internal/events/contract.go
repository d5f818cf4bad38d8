package events

import (
	"context"
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
)

// Publisher получатель событий
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Metrics счетчики событий (реализуется pkg/metrics)
type Metrics interface {
	EventPublished(eventType string)
	EventDropped(eventType string)
	SetSubscribers(broker string, n int)
}

// QueueReader источник очередей для сверки
type QueueReader interface {
	GetServiceQueue(ctx context.Context, serviceID string, date time.Time) (*domain.ServiceQueue, error)
	Today() time.Time
}

// ServiceLister источник активных услуг для сверки
type ServiceLister interface {
	ListServices(ctx context.Context, activeOnly bool) ([]*domain.Service, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopMetrics struct{}

func (nopMetrics) EventPublished(string)      {}
func (nopMetrics) EventDropped(string)        {}
func (nopMetrics) SetSubscribers(string, int) {}
