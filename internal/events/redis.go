package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisPublish возвращается при ошибке публикации в Redis
	ErrRedisPublish = errors.New("events.redis: failed to publish")

	// ErrRedisDecode возвращается, если сообщение из канала не разбирается
	ErrRedisDecode = errors.New("events.redis: failed to decode message")
)

// RedisBus связывает локальные брокеры нескольких экземпляров сервиса через Redis pub/sub.
// Исходящие события уходят в канал, входящие от других экземпляров пересылаются в локальный брокер.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
	local   *Broker
	logger  Logger
}

func NewRedisBus(client redis.UniversalClient, channel string, local *Broker, logger Logger) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		local:   local,
		logger:  logger,
	}
}

// Publish отправляет событие в канал Redis
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if e.Origin == "" {
		e.Origin = b.local.Origin()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: marshal event %s: %v", ErrRedisPublish, e.ID, err)
	}

	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: channel=%s: %v", ErrRedisPublish, b.channel, err)
	}
	return nil
}

// Run слушает канал до отмены контекста
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// дожидаемся подтверждения подписки
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("events.redis: subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("RedisBus: subscribed to channel=%s origin=%s", b.channel, b.local.Origin())

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := b.relay(ctx, msg.Payload); err != nil {
				b.logger.Warn("RedisBus: %v", err)
			}
		}
	}
}

// relay пересылает событие другого экземпляра в локальный брокер, свои события пропускает
func (b *RedisBus) relay(ctx context.Context, payload string) error {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisDecode, err)
	}
	if e.Origin == b.local.Origin() {
		return nil
	}
	return b.local.Publish(ctx, e)
}
