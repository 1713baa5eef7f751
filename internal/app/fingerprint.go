package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// fingerprintPayload is the canonical form of a create-order command. Struct
// field order fixes the serialization, so identical logical content always
// produces identical bytes regardless of how the input was assembled upstream.
type fingerprintPayload struct {
	CustomerID     string            `json:"customerId"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Items          []fingerprintItem `json:"items"`
}

type fingerprintItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// fingerprint returns the hex SHA-256 digest of the canonical serialization of
// the command. The digest is used for collision resistance only, not secrecy.
func fingerprint(in CreateOrderInput) string {
	payload := fingerprintPayload{
		CustomerID:     in.CustomerID,
		IdempotencyKey: in.IdempotencyKey,
		Items:          make([]fingerprintItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		payload.Items = append(payload.Items, fingerprintItem{SKU: item.SKU, Quantity: item.Quantity})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// A struct of strings and ints cannot fail to marshal.
		panic("fingerprint: marshal canonical payload: " + err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
