// Package events moves alert events between the compliance monitor and the
// notification service over Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"datapact/internal/logging"
	"datapact/internal/models"
)

// Producer publishes alert events to the alert topic.
type Producer struct {
	writer *kafka.Writer
	logger *logging.Logger
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string, logger *logging.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer, logger: logger}
}

// Publish writes one event, keyed by contract name so a contract's events
// stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ContractName),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event for %s: %w", event.EventType, event.ContractName, err)
	}

	p.logger.Infof("Published %s event for contract %s", event.EventType, event.ContractName)
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
