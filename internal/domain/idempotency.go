package domain

import "time"

// IdempotencyRecord maps a client-supplied key to the order produced on the
// first successful processing of that key. Records are insert-only: a key
// never remaps to a different order or fingerprint.
type IdempotencyRecord struct {
	Key         string
	OrderID     string
	Fingerprint string
	CreatedAt   time.Time
}
