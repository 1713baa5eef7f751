package domain

import "time"

// OrderCreated is emitted once per logical order. Consumers deduplicate on
// EventID, never on OrderID, since an order may in principle be re-emitted.
type OrderCreated struct {
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	// Source stays nullable so older consumers keep decoding newer payloads.
	Source *string     `json:"source"`
	Items  []EventItem `json:"items"`
}

// EventItem mirrors OrderItem on the wire.
type EventItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}
