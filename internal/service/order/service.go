// Package order implements the order lifecycle: checkout builds a pending
// order from the cart with catalog price snapshots, and approval/cancel
// drive the single pending->terminal transition.
package order

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
	"tiffinbox/internal/pricing"
	orderrepo "tiffinbox/internal/repository/order"
)

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	Approve(ctx context.Context, id string) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (*domain.Order, error)
}

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type menuRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
}

type cartStore interface {
	Lines(customerID string) []domain.CartLine
	Clear(customerID string)
}

type Service struct {
	repo      orderRepo
	customers customerRepo
	menu      menuRepo
	cart      cartStore
	logger    zerolog.Logger

	now func() time.Time
}

func New(repo orderRepo, customers customerRepo, menu menuRepo, cart cartStore, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		menu:      menu,
		cart:      cart,
		logger:    logger.With().Str("service", "order").Logger(),
		now:       time.Now,
	}
}

// Checkout turns the customer's cart into a pending order. The extra flag
// is decided against the plan's remaining capacity at this instant, not at
// the time the cart lines were added. On success the cart is cleared.
func (s *Service) Checkout(ctx context.Context, customerID string) (*domain.Order, error) {
	lines := s.cart.Lines(customerID)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	menuItems, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var totalQty int
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		m, ok := menuItems[l.ItemID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		items = append(items, domain.OrderItem{
			ItemID:         m.ID,
			Name:           m.Name,
			Quantity:       l.Quantity,
			UnitPricePaise: m.UnitPricePaise,
		})
		totalQty += l.Quantity
	}

	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	isExtra := !c.Plan.ActiveAt(now) || totalQty > c.Plan.MealsRemaining

	created, err := s.repo.Create(ctx, orderrepo.CreateOrderInput{
		CustomerID: customerID,
		Items:      items,
		TotalPaise: pricing.Total(items, isExtra),
		IsExtra:    isExtra,
	})
	if err != nil {
		return nil, err
	}

	s.cart.Clear(customerID)
	s.logger.Info().Str("order_id", created.ID).Str("customer_id", customerID).
		Bool("extra", isExtra).Int("quantity", totalQty).Msg("order created")
	return created, nil
}

// Approve transitions the order pending->approved; the repository applies
// the plan decrement for non-extra orders in the same transaction.
func (s *Service) Approve(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.Approve(ctx, orderID)
}

// Cancel transitions the order pending->cancelled. No ledger effect.
func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.Cancel(ctx, orderID)
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// ListMine returns the customer's order history, newest first.
func (s *Service) ListMine(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
