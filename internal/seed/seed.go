package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tiffinbox/internal/domain"
)

// Apply installs the fixed menu. It is idempotent via ON CONFLICT; prices
// are in paise.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	menu := []domain.MenuItem{
		{ID: "masala-chai", Name: "Masala Chai", Category: "chai", UnitPricePaise: 1500, Calories: 105},
		{ID: "ginger-chai", Name: "Ginger Chai", Category: "chai", UnitPricePaise: 1500, Calories: 100},
		{ID: "elaichi-chai", Name: "Elaichi Chai", Category: "chai", UnitPricePaise: 2000, Calories: 110},
		{ID: "filter-coffee", Name: "Filter Coffee", Category: "chai", UnitPricePaise: 2500, Calories: 120},
		{ID: "samosa", Name: "Samosa", Category: "snacks", UnitPricePaise: 2500, Calories: 260},
		{ID: "vada-pav", Name: "Vada Pav", Category: "snacks", UnitPricePaise: 3000, Calories: 290},
		{ID: "poha", Name: "Poha", Category: "snacks", UnitPricePaise: 4000, Calories: 250},
		{ID: "paneer-sandwich", Name: "Paneer Sandwich", Category: "snacks", UnitPricePaise: 9500, Calories: 350},
		{ID: "veg-thali", Name: "Veg Thali", Category: "meals", UnitPricePaise: 12000, Calories: 650},
		{ID: "dal-rice", Name: "Dal Rice", Category: "meals", UnitPricePaise: 9000, Calories: 520},
		{ID: "chole-bhature", Name: "Chole Bhature", Category: "meals", UnitPricePaise: 11000, Calories: 700},
		{ID: "paneer-thali", Name: "Paneer Thali", Category: "meals", UnitPricePaise: 15000, Calories: 720},
	}

	for _, m := range menu {
		if err := upsertItem(ctx, pool, m); err != nil {
			return fmt.Errorf("upsert menu item %s: %w", m.ID, err)
		}
	}
	return nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, m domain.MenuItem) error {
	const q = `
INSERT INTO menu_items (id, name, category, unit_price_paise, calories)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    category = EXCLUDED.category,
    unit_price_paise = EXCLUDED.unit_price_paise,
    calories = EXCLUDED.calories
`
	_, err := pool.Exec(ctx, q, m.ID, m.Name, m.Category, m.UnitPricePaise, m.Calories)
	return err
}
