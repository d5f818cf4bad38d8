package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const (
	brokerName           = "local"
	DefaultSubscriberBuf = 64
)

// Broker in-process pub/sub. Publish никогда не блокируется:
// если буфер подписчика заполнен, событие для него теряется.
type Broker struct {
	mu      sync.RWMutex
	origin  string
	subs    map[uint64]chan Event
	nextID  uint64
	closed  bool
	metrics Metrics
}

// NewBroker создает брокер со случайным идентификатором экземпляра
func NewBroker(m Metrics) *Broker {
	if m == nil {
		m = nopMetrics{}
	}
	return &Broker{
		origin:  uuid.NewString(),
		subs:    make(map[uint64]chan Event),
		metrics: m,
	}
}

// Origin идентификатор экземпляра, которым помечаются исходящие события
func (b *Broker) Origin() string {
	return b.origin
}

// Subscribe регистрирует подписчика. Возвращает канал событий и функцию отписки.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuf
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.metrics.SetSubscribers(brokerName, len(b.subs))
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
				b.metrics.SetSubscribers(brokerName, len(b.subs))
			}
		})
	}
}

// Publish рассылает событие всем локальным подписчикам
func (b *Broker) Publish(_ context.Context, e Event) error {
	if e.Origin == "" {
		e.Origin = b.origin
	}
	// контакты клиента не покидают путь к сервису уведомлений
	e.Notification = nil

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.metrics.EventDropped(string(e.Type))
		}
	}
	b.metrics.EventPublished(string(e.Type))
	return nil
}

// SubscriberCount число активных подписчиков
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close закрывает все подписки
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.metrics.SetSubscribers(brokerName, 0)
}
