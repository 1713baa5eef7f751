package domain

import "errors"

var (
	ErrCustomerRequired    = errors.New("customer id required")
	ErrEmptyItems          = errors.New("order requires at least one item")
	ErrInvalidSKU          = errors.New("item sku required")
	ErrInvalidQuantity     = errors.New("item quantity must be positive")
	ErrOrderNotFound       = errors.New("order not found")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")
	// ErrIdempotencyKeyTaken signals a lost insert race on a fresh key; the
	// processor re-enters the idempotency check rather than failing the request.
	ErrIdempotencyKeyTaken = errors.New("idempotency key already recorded")
)
