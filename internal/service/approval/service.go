// Package approval is the owner-side workflow: payment review, order
// review, and the read-side dashboard projections.
package approval

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tiffinbox/internal/domain"
)

type planLedger interface {
	ApprovePayment(ctx context.Context, customerID string) (*domain.Customer, error)
	RejectPayment(ctx context.Context, customerID string) (*domain.Customer, error)
}

type orderLifecycle interface {
	Approve(ctx context.Context, orderID string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID string) (*domain.Order, error)
}

type customerRepo interface {
	ListPendingPayments(ctx context.Context) ([]domain.Customer, error)
	CountCustomers(ctx context.Context) (int, error)
}

type orderRepo interface {
	ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	ApprovedRevenue(ctx context.Context) (int64, error)
}

type receiptPresigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Service struct {
	plans     planLedger
	orders    orderLifecycle
	customers customerRepo
	orderRepo orderRepo
	receipts  receiptPresigner
	logger    zerolog.Logger
}

func New(plans planLedger, orders orderLifecycle, customers customerRepo, orderRepo orderRepo, receipts receiptPresigner, logger zerolog.Logger) *Service {
	return &Service{
		plans:     plans,
		orders:    orders,
		customers: customers,
		orderRepo: orderRepo,
		receipts:  receipts,
		logger:    logger.With().Str("service", "approval").Logger(),
	}
}

// PendingPayment is a review-queue entry with a short-lived receipt link.
type PendingPayment struct {
	Customer   domain.Customer `json:"customer"`
	ReceiptURL string          `json:"receiptUrl,omitempty"`
}

// Dashboard aggregates owner-facing totals. All values come from repo
// query functions over committed state.
type Dashboard struct {
	Customers            int   `json:"customers"`
	PendingPayments      int   `json:"pendingPayments"`
	PendingOrders        int   `json:"pendingOrders"`
	ApprovedOrders       int   `json:"approvedOrders"`
	CancelledOrders      int   `json:"cancelledOrders"`
	ApprovedRevenuePaise int64 `json:"approvedRevenuePaise"`
}

func (s *Service) ApprovePayment(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.plans.ApprovePayment(ctx, customerID)
}

func (s *Service) RejectPayment(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.plans.RejectPayment(ctx, customerID)
}

func (s *Service) ApproveOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Approve(ctx, orderID)
}

func (s *Service) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Cancel(ctx, orderID)
}

// PendingPayments lists customers awaiting payment review, each with a
// presigned receipt link when a receipt is on file.
func (s *Service) PendingPayments(ctx context.Context) ([]PendingPayment, error) {
	customers, err := s.customers.ListPendingPayments(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]PendingPayment, 0, len(customers))
	for _, c := range customers {
		entry := PendingPayment{Customer: c}
		if c.Plan.ReceiptKey != "" && s.receipts != nil {
			url, err := s.receipts.PresignGet(ctx, c.Plan.ReceiptKey, 15*time.Minute)
			if err != nil {
				// Review can proceed without the link.
				s.logger.Warn().Err(err).Str("customer_id", c.ID).Msg("presign receipt")
			} else {
				entry.ReceiptURL = url
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

// Orders lists orders in the given status for review.
func (s *Service) Orders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.orderRepo.ListByStatus(ctx, status)
}

// Stats builds the owner dashboard.
func (s *Service) Stats(ctx context.Context) (*Dashboard, error) {
	customers, err := s.customers.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.customers.ListPendingPayments(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.ApprovedRevenue(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Customers:            customers,
		PendingPayments:      len(pending),
		PendingOrders:        byStatus[domain.OrderPending],
		ApprovedOrders:       byStatus[domain.OrderApproved],
		CancelledOrders:      byStatus[domain.OrderCancelled],
		ApprovedRevenuePaise: revenue,
	}, nil
}
