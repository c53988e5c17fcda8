package customer

import (
	"context"
	"errors"
	"strings"

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
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "customer").Logger()}
}

const customerColumns = `
id::text, name, email, role,
paid, payment_submitted, total_meals, meals_remaining,
start_date, end_date, COALESCE(receipt_key, ''), plan_version, created_at
`

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (name, email, role)
VALUES ($1, $2, $3)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, in.Name, strings.ToLower(in.Email), in.Role))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE id = $1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) UpdatePlan(ctx context.Context, id string, expectedVersion int64, p domain.Plan) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET paid = $3,
    payment_submitted = $4,
    total_meals = $5,
    meals_remaining = $6,
    start_date = $7,
    end_date = $8,
    receipt_key = NULLIF($9, ''),
    plan_version = plan_version + 1
WHERE id = $1 AND plan_version = $2
RETURNING ` + customerColumns

	row := r.pool.QueryRow(ctx, q, id, expectedVersion,
		p.Paid, p.PaymentSubmitted, p.TotalMeals, p.MealsRemaining,
		p.StartDate, p.EndDate, p.ReceiptKey)
	c, err := r.scanCustomer(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Row missing or version stale; tell the two apart so callers
			// can retry only genuine write races.
			var exists bool
			if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists); checkErr == nil && exists {
				return nil, domain.ErrLedgerConflict
			}
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := notify.Publish(ctx, r.pool, notify.KindPlan, id); err != nil {
		r.logger.Warn().Err(err).Str("customer_id", id).Msg("publish plan event")
	}
	return c, nil
}

func (r *postgresRepo) ListPendingPayments(ctx context.Context) ([]domain.Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE payment_submitted
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("list pending payments")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE role = $1`, domain.RoleCustomer).Scan(&n)
	return n, err
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Role,
		&c.Plan.Paid, &c.Plan.PaymentSubmitted, &c.Plan.TotalMeals, &c.Plan.MealsRemaining,
		&c.Plan.StartDate, &c.Plan.EndDate, &c.Plan.ReceiptKey, &c.Plan.Version, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
