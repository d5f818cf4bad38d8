package events

import (
	"context"
	"time"
)

// DefaultReconcileInterval период сверки очередей
const DefaultReconcileInterval = 5 * time.Second

// Reconciler периодически пересчитывает очереди активных услуг на сегодня
// и публикует queues_updated. Подписчик, пропустивший событие, получит актуальное
// состояние не позже чем через один период.
type Reconciler struct {
	queues    QueueReader
	services  ServiceLister
	publisher Publisher
	interval  time.Duration
	logger    Logger
}

func NewReconciler(queues QueueReader, services ServiceLister, publisher Publisher, interval time.Duration, logger Logger) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		queues:    queues,
		services:  services,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Run выполняет сверку до отмены контекста
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Reconciler: started, interval=%s", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler: stopped")
			return
		case <-ticker.C:
			if n, err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Warn("Reconciler: pass failed after %d services: %v", n, err)
			}
		}
	}
}

// ReconcileOnce один проход сверки. Возвращает число опубликованных снимков.
// Ошибка чтения одной очереди не прерывает проход.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	services, err := r.services.ListServices(ctx, true)
	if err != nil {
		return 0, err
	}

	today := r.queues.Today()
	published := 0
	for _, svc := range services {
		queue, err := r.queues.GetServiceQueue(ctx, svc.ID, today)
		if err != nil {
			r.logger.Warn("Reconciler: failed to read queue service_id=%s: %v", svc.ID, err)
			continue
		}

		evt, err := New(TypeQueuesUpdated, svc.ID, NewQueueSnapshot(queue), time.Now())
		if err != nil {
			return published, err
		}
		if err := r.publisher.Publish(ctx, evt); err != nil {
			r.logger.Warn("Reconciler: failed to publish snapshot service_id=%s: %v", svc.ID, err)
			continue
		}
		published++
	}

	return published, nil
}
