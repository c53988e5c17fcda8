// Package cart holds each customer's staged order lines. Carts live in
// memory for the span of a session; every addition is gated by the plan
// ledger before it lands.
package cart

import (
	"context"
	"sort"
	"sync"

	"tiffinbox/internal/domain"
)

type ledger interface {
	CanAdd(ctx context.Context, customerID, itemID string, cartQtyIfAdded int) error
}

type menuRepo interface {
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
}

type Service struct {
	ledger ledger
	menu   menuRepo

	mu    sync.Mutex
	carts map[string]map[string]int // customerID -> itemID -> quantity
}

func New(ledger ledger, menu menuRepo) *Service {
	return &Service{
		ledger: ledger,
		menu:   menu,
		carts:  make(map[string]map[string]int),
	}
}

// Add increments the item's line by one. The plan ledger is consulted
// first; a rejected addition leaves the cart unchanged.
func (s *Service) Add(ctx context.Context, customerID, itemID string) error {
	if _, err := s.menu.GetByID(ctx, itemID); err != nil {
		return err
	}

	s.mu.Lock()
	current := s.carts[customerID][itemID]
	total := s.totalLocked(customerID)
	s.mu.Unlock()

	if current >= domain.MaxLineQuantity {
		return domain.ErrQuantityOutOfRange
	}
	if err := s.ledger.CanAdd(ctx, customerID, itemID, total+1); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[customerID] == nil {
		s.carts[customerID] = make(map[string]int)
	}
	s.carts[customerID][itemID]++
	return nil
}

// Remove decrements the line by one, dropping it at zero.
func (s *Service) Remove(customerID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[customerID]
	if lines == nil {
		return
	}
	if lines[itemID] <= 1 {
		delete(lines, itemID)
		return
	}
	lines[itemID]--
}

// SetQuantity sets the line quantity, clamped to [0, MaxLineQuantity].
// Zero removes the line.
func (s *Service) SetQuantity(customerID, itemID string, quantity int) {
	if quantity < 0 {
		quantity = 0
	}
	if quantity > domain.MaxLineQuantity {
		quantity = domain.MaxLineQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity == 0 {
		delete(s.carts[customerID], itemID)
		return
	}
	if s.carts[customerID] == nil {
		s.carts[customerID] = make(map[string]int)
	}
	s.carts[customerID][itemID] = quantity
}

// Clear empties the customer's cart. Called after a successful checkout.
func (s *Service) Clear(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, customerID)
}

// Lines returns the cart lines in stable item-id order.
func (s *Service) Lines(customerID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]domain.CartLine, 0, len(s.carts[customerID]))
	for itemID, qty := range s.carts[customerID] {
		lines = append(lines, domain.CartLine{ItemID: itemID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

// TotalQuantity sums all line quantities in the cart.
func (s *Service) TotalQuantity(customerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked(customerID)
}

func (s *Service) totalLocked(customerID string) int {
	var total int
	for _, qty := range s.carts[customerID] {
		total += qty
	}
	return total
}
