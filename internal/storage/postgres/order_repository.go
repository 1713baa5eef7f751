package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/order-intake/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateOrder persists the header and its line items atomically. A reader can
// never observe the header without its items.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		const orderStmt = `
INSERT INTO orders (id, customer_id, status, created_at)
VALUES ($1, $2, $3, $4)`

		if _, err := r.exec(txCtx, orderStmt, order.ID, order.CustomerID, string(order.Status), order.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		const itemStmt = `
INSERT INTO order_items (order_id, position, sku, quantity)
VALUES ($1, $2, $3, $4)`

		for i, item := range order.Items {
			if _, err := r.exec(txCtx, itemStmt, order.ID, i, item.SKU, item.Quantity); err != nil {
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetOrderByID returns the full aggregate including items in submission order,
// or nil when no order exists.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	const headerQuery = `SELECT id, customer_id, status, created_at FROM orders WHERE id = $1`

	var o domain.Order
	var status string
	err := r.queryRow(ctx, headerQuery, id).
		Scan(&o.ID, &o.CustomerID, &status, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	const itemsQuery = `SELECT sku, quantity FROM order_items WHERE order_id = $1 ORDER BY position`

	rows, err := r.query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.SKU, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
