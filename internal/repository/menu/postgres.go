package menu

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("repo", "menu").Logger()}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.MenuItem, error) {
	const q = `
SELECT id, name, category, unit_price_paise, calories
FROM menu_items
ORDER BY category, name
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("list menu")
		return nil, err
	}
	defer rows.Close()

	var result []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.UnitPricePaise, &m.Calories); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("list menu rows")
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	const q = `
SELECT id, name, category, unit_price_paise, calories
FROM menu_items
WHERE id = $1
`
	var m domain.MenuItem
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Name, &m.Category, &m.UnitPricePaise, &m.Calories)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("id", id).Msg("get menu item")
		return nil, err
	}
	return &m, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	const q = `
SELECT id, name, category, unit_price_paise, calories
FROM menu_items
WHERE id = ANY($1)
`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("get menu items")
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.MenuItem, len(ids))
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.UnitPricePaise, &m.Calories); err != nil {
			return nil, err
		}
		result[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
