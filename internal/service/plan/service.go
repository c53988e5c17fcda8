// Package plan implements the subscription ledger: plan lifecycle
// transitions, capacity checks for the cart, and receipt handling.
package plan

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
)

// Plan mutations are read-modify-write under a version check; retry a few
// times before surfacing the conflict to the caller.
const maxUpdateAttempts = 3

type customerRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdatePlan(ctx context.Context, id string, expectedVersion int64, p domain.Plan) (*domain.Customer, error)
}

type orderCounter interface {
	CountItemOrders(ctx context.Context, customerID, itemID string, from, to time.Time) (int, error)
}

type receiptStore interface {
	Put(ctx context.Context, customerID, filename, contentType string, body io.Reader) (string, error)
}

type Service struct {
	repo     customerRepo
	orders   orderCounter
	receipts receiptStore
	logger   zerolog.Logger

	// revokeOnRenewal preserves the policy where requesting a renewal
	// immediately zeroes the current plan even if time remains.
	revokeOnRenewal bool

	now func() time.Time
}

type Options struct {
	RevokeOnRenewal bool
}

func New(repo customerRepo, orders orderCounter, receipts receiptStore, logger zerolog.Logger, opts Options) *Service {
	return &Service{
		repo:            repo,
		orders:          orders,
		receipts:        receipts,
		logger:          logger.With().Str("service", "plan").Logger(),
		revokeOnRenewal: opts.RevokeOnRenewal,
		now:             time.Now,
	}
}

// Get returns the customer with their current plan.
func (s *Service) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// CanAdd gates a cart addition against the plan. cartQtyIfAdded is the cart
// total quantity after the prospective addition. Inactive plans impose no
// restriction; the resulting order is simply flagged extra.
func (s *Service) CanAdd(ctx context.Context, customerID, itemID string, cartQtyIfAdded int) error {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	now := s.now()
	if !c.Plan.ActiveAt(now) {
		return nil
	}
	if c.Plan.MealsRemaining <= 0 {
		return &domain.CapacityError{Reason: domain.ReasonPlanFull}
	}
	count, err := s.orders.CountItemOrders(ctx, customerID, itemID, *c.Plan.StartDate, *c.Plan.EndDate)
	if err != nil {
		return err
	}
	if count >= domain.MaxOrdersPerItem {
		return &domain.CapacityError{Reason: domain.ReasonItemMaxedForPlan}
	}
	if cartQtyIfAdded > c.Plan.MealsRemaining {
		return &domain.CapacityError{Reason: domain.ReasonExceedsRemainingCapacity}
	}
	return nil
}

// SubmitReceipt uploads a payment receipt and marks the payment as awaiting
// owner review. The plan balance is untouched until the owner approves.
func (s *Service) SubmitReceipt(ctx context.Context, customerID, filename, contentType string, body io.Reader) (*domain.Customer, error) {
	key, err := s.receipts.Put(ctx, customerID, filename, contentType, body)
	if err != nil {
		return nil, err
	}
	return s.mutatePlan(ctx, customerID, func(p *domain.Plan) error {
		p.PaymentSubmitted = true
		p.ReceiptKey = key
		return nil
	})
}

// ApprovePayment activates (or renews) the plan: full capacity, fresh
// 30-day window. Approving an already active plan re-issues the window and
// discards any partially used capacity; that is the renewal path.
func (s *Service) ApprovePayment(ctx context.Context, customerID string) (*domain.Customer, error) {
	now := s.now()
	c, err := s.mutatePlan(ctx, customerID, func(p *domain.Plan) error {
		p.Activate(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("customer_id", customerID).Time("end_date", *c.Plan.EndDate).Msg("payment approved")
	return c, nil
}

// RejectPayment clears a submitted receipt without touching the balance.
func (s *Service) RejectPayment(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.mutatePlan(ctx, customerID, func(p *domain.Plan) error {
		if !p.PaymentSubmitted {
			return domain.ErrNoPendingPayment
		}
		p.PaymentSubmitted = false
		p.ReceiptKey = ""
		return nil
	})
}

// RequestRenewal puts an exhausted plan back into the payment-submitted
// state. With the revoke policy on, the current plan is voided immediately
// even if its window has time left.
func (s *Service) RequestRenewal(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.mutatePlan(ctx, customerID, func(p *domain.Plan) error {
		if p.MealsRemaining > 0 && p.ActiveAt(s.now()) {
			return domain.ErrRenewalNotDue
		}
		p.PaymentSubmitted = true
		if s.revokeOnRenewal {
			p.Paid = false
			p.MealsRemaining = 0
			p.StartDate = nil
			p.EndDate = nil
		}
		return nil
	})
}

// mutatePlan applies mutate under optimistic concurrency, retrying stale
// reads. After the attempts are exhausted the conflict is the caller's.
func (s *Service) mutatePlan(ctx context.Context, customerID string, mutate func(*domain.Plan) error) (*domain.Customer, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		c, err := s.repo.GetByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		p := c.Plan
		if err := mutate(&p); err != nil {
			return nil, err
		}
		updated, err := s.repo.UpdatePlan(ctx, customerID, c.Plan.Version, p)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrLedgerConflict) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug().Str("customer_id", customerID).Int("attempt", attempt+1).Msg("plan update conflict, retrying")
	}
	return nil, lastErr
}
