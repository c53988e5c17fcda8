package menu

import (
	"context"

	"tiffinbox/internal/domain"
)

// Repository reads the fixed menu catalog. There is no write path; the menu
// is installed by the seed binary.
type Repository interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
}
