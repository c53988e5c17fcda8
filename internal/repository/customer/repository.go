package customer

import (
	"context"

	"tiffinbox/internal/domain"
)

type CreateInput struct {
	Name  string
	Email string
	Role  string
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// UpdatePlan writes the plan only if the stored version still equals
	// expectedVersion, bumping the version on success. Returns
	// domain.ErrLedgerConflict when a concurrent writer got there first.
	UpdatePlan(ctx context.Context, id string, expectedVersion int64, p domain.Plan) (*domain.Customer, error)
	ListPendingPayments(ctx context.Context) ([]domain.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
}
