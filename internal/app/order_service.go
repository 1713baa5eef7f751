package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cimillas/order-intake/internal/clock"
	"github.com/cimillas/order-intake/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
}

// EventPublisher delivers the OrderCreated event. A returned error aborts the
// whole create operation: the service never reports success for a fresh order
// without both a persisted aggregate and a published event.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event domain.OrderCreated) error
}

// OrderService orchestrates fingerprinting, the idempotency ledger, aggregate
// persistence and event emission for each create-order command.
type OrderService struct {
	orders    OrderRepository
	ledger    *IdempotencyLedger
	publisher EventPublisher
	clock     clock.Clock
}

func NewOrderService(orders OrderRepository, ledger *IdempotencyLedger, publisher EventPublisher, clk clock.Clock) *OrderService {
	return &OrderService{
		orders:    orders,
		ledger:    ledger,
		publisher: publisher,
		clock:     clk,
	}
}

type CreateOrderInput struct {
	CustomerID     string
	IdempotencyKey string
	Items          []domain.OrderItem
}

type CreateOrderResult struct {
	Order domain.Order
	// Created is false when the result replays a previously processed key.
	Created bool
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := validateCreateOrder(in); err != nil {
		return CreateOrderResult{}, err
	}

	fp := fingerprint(in)
	key := strings.TrimSpace(in.IdempotencyKey)

	if key != "" {
		out, err := s.ledger.Check(ctx, key, fp)
		if err != nil {
			return CreateOrderResult{}, err
		}
		switch out.Status {
		case LedgerHit:
			return s.replay(ctx, out.OrderID)
		case LedgerConflict:
			return CreateOrderResult{}, domain.ErrIdempotencyConflict
		}
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:         newOrderID(),
		CustomerID: in.CustomerID,
		Status:     domain.OrderStatusCreated,
		Items:      append([]domain.OrderItem(nil), in.Items...),
		CreatedAt:  now,
	}

	err := s.orders.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.CreateOrder(txCtx, order); err != nil {
			return err
		}
		if key != "" {
			if err := s.ledger.Record(txCtx, key, order.ID, fp, now); err != nil {
				return err
			}
		}
		// The publish is a network call and cannot join the commit, but it
		// runs before the commit so a failed publish rolls everything back
		// instead of leaving a persisted order whose event was never sent.
		return s.publisher.PublishOrderCreated(txCtx, s.newOrderCreated(order))
	})
	if err != nil {
		if key != "" && errors.Is(err, domain.ErrIdempotencyKeyTaken) {
			// Lost the insert race on a fresh key. The winner has committed
			// by the time the unique violation surfaces, so a fresh check
			// observes its record deterministically.
			return s.recheck(ctx, key, fp)
		}
		return CreateOrderResult{}, err
	}

	return CreateOrderResult{Order: order, Created: true}, nil
}

// GetOrder is the retrieval-only path: a read-through of the store.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *order, nil
}

func (s *OrderService) recheck(ctx context.Context, key, fp string) (CreateOrderResult, error) {
	out, err := s.ledger.Check(ctx, key, fp)
	if err != nil {
		return CreateOrderResult{}, err
	}
	switch out.Status {
	case LedgerHit:
		return s.replay(ctx, out.OrderID)
	case LedgerConflict:
		return CreateOrderResult{}, domain.ErrIdempotencyConflict
	}
	return CreateOrderResult{}, fmt.Errorf("idempotency key %q vanished after lost insert race", key)
}

func (s *OrderService) replay(ctx context.Context, orderID string) (CreateOrderResult, error) {
	existing, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if existing == nil {
		return CreateOrderResult{}, fmt.Errorf("ledger references order %s missing from store", orderID)
	}
	return CreateOrderResult{Order: *existing, Created: false}, nil
}

func (s *OrderService) newOrderCreated(order domain.Order) domain.OrderCreated {
	items := make([]domain.EventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, domain.EventItem{SKU: item.SKU, Quantity: item.Quantity})
	}
	return domain.OrderCreated{
		EventID:    uuid.NewString(),
		OccurredAt: s.clock.Now(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      items,
	}
}

// validateCreateOrder is a backstop behind the transport-level validation: a
// command with a blank customer or zero items never reaches the state machine.
func validateCreateOrder(in CreateOrderInput) error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return domain.ErrCustomerRequired
	}
	if len(in.Items) == 0 {
		return domain.ErrEmptyItems
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return domain.ErrInvalidSKU
		}
		if item.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
	}
	return nil
}
