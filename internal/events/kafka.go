package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaWrite возвращается при ошибке записи в Kafka
var ErrKafkaWrite = errors.New("events.kafka: failed to write message")

// MessageWriter часть *kafka.Writer, нужная sink
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter создает writer с ключевым партиционированием:
// события одной записи попадают в одну партицию и сохраняют порядок
func NewKafkaWriter(brokers []string, topic string, logger Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("KafkaSink: async write of %d messages failed: %v", len(messages), err)
			}
		},
	}
}

// KafkaSink передает события жизненного цикла записей во внешний сервис уведомлений.
// Остальные типы событий игнорируются.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Publish(ctx context.Context, e Event) error {
	if !e.Type.IsLifecycle() {
		return nil
	}

	value := e.Notification
	if len(value) == 0 {
		value = e.Data
	}

	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID)},
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: event=%s type=%s: %v", ErrKafkaWrite, e.ID, e.Type, err)
	}
	return nil
}

// Close закрывает writer и дожидается отправки буфера
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
