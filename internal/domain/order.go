package domain

import "time"

type OrderStatus string

const (
	// OrderStatusCreated is the only status in the intake flow; later
	// lifecycle transitions belong to downstream services.
	OrderStatusCreated OrderStatus = "CREATED"
)

// OrderItem is a single line of an order.
type OrderItem struct {
	SKU      string
	Quantity int
}

// Order is the order aggregate: the header plus its line items. The ID is
// assigned by the service before persistence so it can be embedded in the
// idempotency record and the outbound event within the same transaction.
type Order struct {
	ID         string
	CustomerID string
	Status     OrderStatus
	Items      []OrderItem
	CreatedAt  time.Time
}
