package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards bus events to a topic keyed by origin table, so the
// events of one table stay ordered within a partition.
type KafkaSink struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 10 * time.Second,
		},
		timeout: 5 * time.Second,
	}
}

// Run forwards events until ctx is done or the bus closes the subscription.
func (s *KafkaSink) Run(ctx context.Context, bus Bus) {
	events, unsubscribe := bus.Subscribe("kafka")
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.write(ctx, e); err != nil {
				slog.Error("forward event to kafka", "type", e.Type, "error", err)
			}
		}
	}
}

func (s *KafkaSink) write(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.Origin),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
