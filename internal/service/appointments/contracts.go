package appointments

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/m04kA/SMC-QueueService/internal/domain"
	"github.com/m04kA/SMC-QueueService/internal/events"
)

// AppointmentRepository интерфейс хранилища записей
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.AppointmentPatch) (*domain.Appointment, error)
	Stats(ctx context.Context, today time.Time) (*domain.Stats, error)
	BusiestHours(ctx context.Context, limit uint64) ([]domain.HourBucket, error)
	CountByService(ctx context.Context) ([]domain.ServiceCount, error)
}

// ActivityRepository интерфейс журнала действий персонала
type ActivityRepository interface {
	Record(ctx context.Context, entry *domain.StaffActivityLog) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]*domain.StaffActivityLog, error)
}

// EventPublisher получатель событий после изменений
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// TransitionRecorder метрика переходов статусов
type TransitionRecorder interface {
	Transition(status string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RandomSource источник случайного суффикса номера талона
type RandomSource interface {
	IntN(n int) int
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// globalRandom math/rand/v2, безопасен для конкурентного использования
type globalRandom struct{}

func (globalRandom) IntN(n int) int {
	return rand.IntN(n)
}

type nopRecorder struct{}

func (nopRecorder) Transition(string) {}
