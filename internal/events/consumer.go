package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"datapact/internal/logging"
	"datapact/internal/models"
)

// Handler processes one decoded alert event.
type Handler func(ctx context.Context, event models.Event)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads alert events from Kafka and hands them to a Handler.
type Consumer struct {
	reader      messageReader
	handler     Handler
	logger      *logging.Logger
	readBackoff time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewConsumer creates a group consumer on the alert topic.
func NewConsumer(broker, topic, groupID string, handler Handler, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		reader:      reader,
		handler:     handler,
		logger:      logger,
		readBackoff: time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start consumes messages until Close is called. Malformed or incomplete
// messages are logged and skipped.
func (c *Consumer) Start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka alert consumer started")

		for {
			msg, err := c.reader.ReadMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					c.logger.Infof("Kafka alert consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				// Keep a broken broker connection from spinning the loop.
				select {
				case <-c.ctx.Done():
					c.logger.Infof("Kafka alert consumer stopped")
					return
				case <-time.After(c.readBackoff):
				}
				continue
			}

			var event models.Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Errorf("Unmarshal event failed: %v", err)
				continue
			}

			if event.EventType == "" || event.ContractName == "" {
				c.logger.Errorf("Invalid event: missing event_type or contract_name")
				continue
			}

			c.handler(c.ctx, event)
		}
	}()
}

// Close stops the consumer and releases the reader.
func (c *Consumer) Close() {
	c.cancel()
	if err := c.reader.Close(); err != nil {
		c.logger.Errorf("Kafka reader close failed: %v", err)
	}
}
