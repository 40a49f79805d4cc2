package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes ride events to a Kafka topic, keyed by ride id so
// per-ride ordering is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaPublisher{writer: w}
}

// Publish writes one event with a short timeout so a slow broker cannot
// stall a ride transition.
func (p *KafkaPublisher) Publish(ctx context.Context, event RideEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.RideID), Value: value})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
