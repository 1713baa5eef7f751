package app

import (
	"context"
	"time"

	"github.com/cimillas/order-intake/internal/domain"
)

// IdempotencyRepository is the durable store behind the ledger. Get returns
// nil when no record exists. Insert must enforce key uniqueness at the storage
// layer and return domain.ErrIdempotencyKeyTaken on a duplicate.
type IdempotencyRepository interface {
	GetRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	InsertRecord(ctx context.Context, rec domain.IdempotencyRecord) error
}

// LedgerStatus classifies the outcome of an idempotency check.
type LedgerStatus int

const (
	LedgerMiss LedgerStatus = iota
	LedgerHit
	LedgerConflict
)

// LedgerOutcome carries the check result; OrderID is set on LedgerHit.
type LedgerOutcome struct {
	Status  LedgerStatus
	OrderID string
}

// IdempotencyLedger is the key -> (orderID, fingerprint) mapping with conflict
// detection. Concurrency on the same key is serialized by the storage-layer
// uniqueness constraint; the ledger itself holds no locks.
type IdempotencyLedger struct {
	repo IdempotencyRepository
}

func NewIdempotencyLedger(repo IdempotencyRepository) *IdempotencyLedger {
	return &IdempotencyLedger{repo: repo}
}

// Check reports whether key was seen before. A stored record with a different
// fingerprint means the client reused the key for different content, which
// must surface as a conflict and never be silently overwritten.
func (l *IdempotencyLedger) Check(ctx context.Context, key, fingerprint string) (LedgerOutcome, error) {
	rec, err := l.repo.GetRecord(ctx, key)
	if err != nil {
		return LedgerOutcome{}, err
	}
	if rec == nil {
		return LedgerOutcome{Status: LedgerMiss}, nil
	}
	if rec.Fingerprint != fingerprint {
		return LedgerOutcome{Status: LedgerConflict}, nil
	}
	return LedgerOutcome{Status: LedgerHit, OrderID: rec.OrderID}, nil
}

// Record persists the mapping. It must run after the order is durably written
// and inside the same transaction, so the mapping and the order commit or roll
// back together.
func (l *IdempotencyLedger) Record(ctx context.Context, key, orderID, fingerprint string, now time.Time) error {
	return l.repo.InsertRecord(ctx, domain.IdempotencyRecord{
		Key:         key,
		OrderID:     orderID,
		Fingerprint: fingerprint,
		CreatedAt:   now,
	})
}
