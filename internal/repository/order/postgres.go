package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/notify"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "order").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO orders (customer_id, total_paise, status, is_extra)
VALUES ($1, $2, 'pending', $3)
RETURNING id::text, created_at
`
	order := domain.Order{
		CustomerID: in.CustomerID,
		Items:      in.Items,
		TotalPaise: in.TotalPaise,
		Status:     domain.OrderPending,
		IsExtra:    in.IsExtra,
	}
	if err := tx.QueryRow(ctx, q, in.CustomerID, in.TotalPaise, in.IsExtra).Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, err
	}

	for _, it := range in.Items {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, item_id, name, quantity, unit_price_paise)
VALUES ($1, $2, $3, $4, $5)
`, order.ID, it.ItemID, it.Name, it.Quantity, it.UnitPricePaise); err != nil {
			return nil, err
		}
	}

	if err := notify.Publish(ctx, tx, notify.KindOrder, order.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, customer_id::text, total_paise, status, is_extra, created_at, approved_at
FROM orders
WHERE id = $1
`
	orders, err := r.fetchOrders(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	const q = `
SELECT id::text, customer_id::text, total_paise, status, is_extra, created_at, approved_at
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
`
	return r.fetchOrders(ctx, q, customerID)
}

func (r *postgresRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	const q = `
SELECT id::text, customer_id::text, total_paise, status, is_extra, created_at, approved_at
FROM orders
WHERE status = $1
ORDER BY created_at ASC
`
	return r.fetchOrders(ctx, q, string(status))
}

// Approve performs the pending->approved transition and the plan decrement
// as one transaction. The conditional UPDATE on status is the exactly-once
// gate; the GREATEST expression applies the clamped decrement atomically on
// the customer row, so concurrent approvals for the same customer serialize
// on row locks instead of losing updates.
func (r *postgresRepo) Approve(ctx context.Context, id string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var customerID string
	var isExtra bool
	err = tx.QueryRow(ctx, `
UPDATE orders
SET status = 'approved', approved_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING customer_id::text, is_extra
`, id).Scan(&customerID, &isExtra)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.decideConflict(ctx, id)
		}
		return nil, err
	}

	if !isExtra {
		if _, err := tx.Exec(ctx, `
UPDATE customers
SET meals_remaining = GREATEST(0, meals_remaining - (
	SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE order_id = $2
)),
    plan_version = plan_version + 1
WHERE id = $1
`, customerID, id); err != nil {
			return nil, err
		}
		if err := notify.Publish(ctx, tx, notify.KindPlan, customerID); err != nil {
			return nil, err
		}
	}

	if err := notify.Publish(ctx, tx, notify.KindOrder, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Info().Str("order_id", id).Str("customer_id", customerID).Bool("extra", isExtra).Msg("order approved")
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = 'cancelled'
WHERE id = $1 AND status = 'pending'
`, id)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, r.decideConflict(ctx, id)
	}
	if err := notify.Publish(ctx, r.pool, notify.KindOrder, id); err != nil {
		r.logger.Warn().Err(err).Str("order_id", id).Msg("publish order event")
	}
	return r.GetByID(ctx, id)
}

// decideConflict distinguishes a missing order from one already decided.
func (r *postgresRepo) decideConflict(ctx context.Context, id string) error {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return domain.ErrAlreadyDecided
}

func (r *postgresRepo) CountItemOrders(ctx context.Context, customerID, itemID string, from, to time.Time) (int, error) {
	const q = `
SELECT COUNT(DISTINCT o.id)
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
WHERE o.customer_id = $1
  AND oi.item_id = $2
  AND o.status IN ('pending', 'approved')
  AND o.created_at BETWEEN $3 AND $4
`
	var n int
	err := r.pool.QueryRow(ctx, q, customerID, itemID, from, to).Scan(&n)
	return n, err
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		result[domain.OrderStatus(status)] = n
	}
	return result, rows.Err()
}

func (r *postgresRepo) ApprovedRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(total_paise), 0) FROM orders WHERE status = 'approved'
`).Scan(&total)
	return total, err
}

func (r *postgresRepo) fetchOrders(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalPaise, &o.Status, &o.IsExtra, &o.CreatedAt, &o.ApprovedAt); err != nil {
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	const linesQuery = `
SELECT order_id::text, item_id, name, quantity, unit_price_paise
FROM order_items
WHERE order_id = ANY($1)
ORDER BY name
`
	lineRows, err := r.pool.Query(ctx, linesQuery, ids)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := lineRows.Scan(&orderID, &it.ItemID, &it.Name, &it.Quantity, &it.UnitPricePaise); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
