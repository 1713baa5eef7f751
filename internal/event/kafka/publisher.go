package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/cimillas/order-intake/internal/domain"
)

// TopicOrderCreated is the versioned topic the intake service publishes to.
const TopicOrderCreated = "orders.order-created.v1"

// Writer is the subset of kafka-go's Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits OrderCreated events. Delivery is best effort with a bounded
// retry; the final failure propagates so the caller can abort the operation
// that produced the event.
type Publisher struct {
	writer   Writer
	logger   zerolog.Logger
	attempts int
	backoff  time.Duration
}

func NewPublisher(writer Writer, logger zerolog.Logger, attempts int, backoff time.Duration) *Publisher {
	if attempts < 1 {
		attempts = 1
	}
	return &Publisher{
		writer:   writer,
		logger:   logger,
		attempts: attempts,
		backoff:  backoff,
	}
}

// NewWriter builds the kafka-go writer wired at startup. Messages are keyed by
// order id, so all events for one order land on one partition.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			lastErr = err
			p.logger.Warn().
				Err(err).
				Str("order_id", event.OrderID).
				Str("event_id", event.EventID).
				Int("attempt", attempt).
				Msg("publish order created failed")
			if attempt < p.attempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.backoff):
				}
			}
			continue
		}
		p.logger.Info().
			Str("order_id", event.OrderID).
			Str("event_id", event.EventID).
			Msg("published order created")
		return nil
	}
	return fmt.Errorf("publish order created after %d attempts: %w", p.attempts, lastErr)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
