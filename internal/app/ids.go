package app

import (
	"strings"

	"github.com/google/uuid"
)

// newOrderID returns an id of the form ORD-1A2B3C4D. The short form keeps ids
// quotable on support channels; the orders primary key still rejects the rare
// collision.
func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
