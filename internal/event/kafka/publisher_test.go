package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/cimillas/order-intake/internal/domain"
)

func TestPublisher_PublishOrderCreated(t *testing.T) {
	t.Parallel()

	event := domain.OrderCreated{
		EventID:    "evt-1",
		OccurredAt: time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC),
		OrderID:    "ORD-AAAA0001",
		CustomerID: "CUST-1",
		Items:      []domain.EventItem{{SKU: "S1", Quantity: 2}},
	}

	t.Run("writes a message keyed by order id", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := NewPublisher(writer, zerolog.Nop(), 3, time.Millisecond)

		if err := pub.PublishOrderCreated(context.Background(), event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(writer.messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(writer.messages))
		}
		msg := writer.messages[0]
		if string(msg.Key) != event.OrderID {
			t.Fatalf("expected key %s, got %s", event.OrderID, msg.Key)
		}

		var decoded domain.OrderCreated
		if err := json.Unmarshal(msg.Value, &decoded); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if decoded.EventID != event.EventID || decoded.OrderID != event.OrderID {
			t.Fatalf("unexpected payload: %+v", decoded)
		}
		if decoded.Source != nil {
			t.Fatalf("expected null source, got %v", *decoded.Source)
		}
	})

	t.Run("retries transient failures up to the attempt budget", func(t *testing.T) {
		writer := &fakeWriter{failures: 2}
		pub := NewPublisher(writer, zerolog.Nop(), 3, time.Millisecond)

		if err := pub.PublishOrderCreated(context.Background(), event); err != nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if writer.calls != 3 {
			t.Fatalf("expected 3 write attempts, got %d", writer.calls)
		}
	})

	t.Run("exhausted attempts surface the last error", func(t *testing.T) {
		writer := &fakeWriter{failures: 5}
		pub := NewPublisher(writer, zerolog.Nop(), 2, time.Millisecond)

		err := pub.PublishOrderCreated(context.Background(), event)
		if err == nil {
			t.Fatalf("expected error")
		}
		if !errors.Is(err, errBrokerDown) {
			t.Fatalf("expected wrapped broker error, got %v", err)
		}
		if writer.calls != 2 {
			t.Fatalf("expected 2 write attempts, got %d", writer.calls)
		}
	})

	t.Run("cancelled context stops the retry loop", func(t *testing.T) {
		writer := &fakeWriter{failures: 5}
		pub := NewPublisher(writer, zerolog.Nop(), 3, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := pub.PublishOrderCreated(ctx, event)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if writer.calls != 1 {
			t.Fatalf("expected 1 write attempt, got %d", writer.calls)
		}
	})

	t.Run("attempt budget below one is normalized", func(t *testing.T) {
		writer := &fakeWriter{}
		pub := NewPublisher(writer, zerolog.Nop(), 0, time.Millisecond)

		if err := pub.PublishOrderCreated(context.Background(), event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if writer.calls != 1 {
			t.Fatalf("expected 1 write attempt, got %d", writer.calls)
		}
	})
}

var errBrokerDown = errors.New("broker unreachable")

type fakeWriter struct {
	messages []kafkago.Message
	calls    int
	failures int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errBrokerDown
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	return nil
}
