package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/order-intake/internal/domain"
)

type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) GetRecord(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	const query = `
SELECT idempotency_key, order_id, request_fingerprint, created_at
FROM idempotency_keys
WHERE idempotency_key = $1`

	var rec domain.IdempotencyRecord
	err := r.queryRow(ctx, query, key).
		Scan(&rec.Key, &rec.OrderID, &rec.Fingerprint, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return &rec, nil
}

// InsertRecord is insert-only. The primary key on idempotency_key makes
// exactly one concurrent insert win; the loser gets ErrIdempotencyKeyTaken.
func (r *IdempotencyRepository) InsertRecord(ctx context.Context, rec domain.IdempotencyRecord) error {
	const stmt = `
INSERT INTO idempotency_keys (idempotency_key, order_id, request_fingerprint, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, rec.Key, rec.OrderID, rec.Fingerprint, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyKeyTaken
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *IdempotencyRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
