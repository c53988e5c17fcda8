package order

import (
	"context"
	"time"

	"tiffinbox/internal/domain"
)

type CreateOrderInput struct {
	CustomerID string
	Items      []domain.OrderItem
	TotalPaise int64
	IsExtra    bool
}

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	// Approve flips the order pending->approved exactly once and, for plan
	// orders, decrements the owning customer's remaining meals in the same
	// transaction. A non-pending order yields domain.ErrAlreadyDecided.
	Approve(ctx context.Context, id string) (*domain.Order, error)
	// Cancel flips the order pending->cancelled with no ledger effect.
	Cancel(ctx context.Context, id string) (*domain.Order, error)
	// CountItemOrders counts distinct pending-or-approved orders by the
	// customer that reference the item within [from, to].
	CountItemOrders(ctx context.Context, customerID, itemID string, from, to time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	ApprovedRevenue(ctx context.Context) (int64, error)
}
