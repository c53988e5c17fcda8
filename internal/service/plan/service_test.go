package plan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tiffinbox/internal/domain"
)

type stubCustomerRepo struct {
	customer   *domain.Customer
	getErr     error
	updateErrs []error
	updates    []domain.Plan
	versions   []int64
}

func (s *stubCustomerRepo) GetByID(_ context.Context, _ string) (*domain.Customer, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	c := *s.customer
	return &c, nil
}

func (s *stubCustomerRepo) UpdatePlan(_ context.Context, _ string, version int64, p domain.Plan) (*domain.Customer, error) {
	s.versions = append(s.versions, version)
	if len(s.updateErrs) > 0 {
		err := s.updateErrs[0]
		s.updateErrs = s.updateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	s.updates = append(s.updates, p)
	s.customer.Plan = p
	s.customer.Plan.Version = version + 1
	c := *s.customer
	return &c, nil
}

type stubOrderCounter struct {
	count int
	err   error
}

func (s *stubOrderCounter) CountItemOrders(_ context.Context, _, _ string, _, _ time.Time) (int, error) {
	return s.count, s.err
}

type stubReceiptStore struct {
	key          string
	err          error
	lastFilename string
}

func (s *stubReceiptStore) Put(_ context.Context, _, filename, _ string, _ io.Reader) (string, error) {
	s.lastFilename = filename
	return s.key, s.err
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func activePlan(now time.Time, remaining int) domain.Plan {
	start := now.AddDate(0, 0, -5)
	return domain.Plan{
		Paid:           true,
		TotalMeals:     domain.PlanCapacity,
		MealsRemaining: remaining,
		StartDate:      timePtr(start),
		EndDate:        timePtr(start.AddDate(0, 0, domain.PlanPeriodDays)),
		Version:        1,
	}
}

func newService(repo *stubCustomerRepo, orders *stubOrderCounter, receipts *stubReceiptStore, now time.Time) *Service {
	svc := &Service{
		repo:            repo,
		orders:          orders,
		receipts:        receipts,
		revokeOnRenewal: true,
	}
	svc.now = func() time.Time { return now }
	return svc
}

func TestCanAddInactivePlanUnrestricted(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: domain.Plan{Version: 1}}}
	svc := newService(repo, &stubOrderCounter{count: 99}, nil, now)

	if err := svc.CanAdd(context.Background(), "cust", "samosa", 100); err != nil {
		t.Fatalf("expected no restriction on inactive plan, got %v", err)
	}
}

func TestCanAddPlanFull(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 0)}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	err := svc.CanAdd(context.Background(), "cust", "samosa", 1)
	ce, ok := domain.AsCapacityError(err)
	if !ok || ce.Reason != domain.ReasonPlanFull {
		t.Fatalf("expected PlanFull, got %v", err)
	}
}

func TestCanAddItemMaxed(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 10)}}
	svc := newService(repo, &stubOrderCounter{count: domain.MaxOrdersPerItem}, nil, now)

	err := svc.CanAdd(context.Background(), "cust", "samosa", 1)
	ce, ok := domain.AsCapacityError(err)
	if !ok || ce.Reason != domain.ReasonItemMaxedForPlan {
		t.Fatalf("expected ItemMaxedForPlan, got %v", err)
	}
}

func TestCanAddExceedsRemaining(t *testing.T) {
	// Plan active with 3 meals remaining; a 4th unit must be rejected.
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 3)}}
	svc := newService(repo, &stubOrderCounter{count: 0}, nil, now)

	if err := svc.CanAdd(context.Background(), "cust", "samosa", 3); err != nil {
		t.Fatalf("3rd unit should fit, got %v", err)
	}
	err := svc.CanAdd(context.Background(), "cust", "samosa", 4)
	ce, ok := domain.AsCapacityError(err)
	if !ok || ce.Reason != domain.ReasonExceedsRemainingCapacity {
		t.Fatalf("expected ExceedsRemainingCapacity, got %v", err)
	}
}

func TestCanAddReasonPriority(t *testing.T) {
	// A full plan reports PlanFull even when the item is also maxed.
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 0)}}
	svc := newService(repo, &stubOrderCounter{count: domain.MaxOrdersPerItem}, nil, now)

	err := svc.CanAdd(context.Background(), "cust", "samosa", 1)
	ce, ok := domain.AsCapacityError(err)
	if !ok || ce.Reason != domain.ReasonPlanFull {
		t.Fatalf("expected PlanFull to win, got %v", err)
	}
}

func TestApprovePaymentActivatesPlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &stubCustomerRepo{customer: &domain.Customer{
		ID:   "cust",
		Plan: domain.Plan{PaymentSubmitted: true, ReceiptKey: "r1", Version: 1},
	}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	c, err := svc.ApprovePayment(context.Background(), "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := c.Plan
	if !p.Paid || p.PaymentSubmitted {
		t.Fatalf("expected paid plan without pending payment, got %+v", p)
	}
	if p.TotalMeals != domain.PlanCapacity || p.MealsRemaining != domain.PlanCapacity {
		t.Fatalf("expected full capacity, got %d/%d", p.MealsRemaining, p.TotalMeals)
	}
	if p.StartDate == nil || !p.StartDate.Equal(now) {
		t.Fatalf("unexpected start date %v", p.StartDate)
	}
	if p.EndDate == nil || !p.EndDate.Equal(now.AddDate(0, 0, domain.PlanPeriodDays)) {
		t.Fatalf("expected end date 30 days out, got %v", p.EndDate)
	}
}

func TestApprovePaymentRenewalResetsPartialUse(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 7)}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	c, err := svc.ApprovePayment(context.Background(), "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Plan.MealsRemaining != domain.PlanCapacity {
		t.Fatalf("renewal must re-issue full capacity, got %d", c.Plan.MealsRemaining)
	}
}

func TestSubmitReceipt(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: domain.Plan{Version: 1}}}
	receipts := &stubReceiptStore{key: "receipts/cust/1.jpg"}
	svc := newService(repo, &stubOrderCounter{}, receipts, now)

	c, err := svc.SubmitReceipt(context.Background(), "cust", "upi.jpg", "image/jpeg", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Plan.PaymentSubmitted || c.Plan.ReceiptKey != "receipts/cust/1.jpg" {
		t.Fatalf("unexpected plan after submit: %+v", c.Plan)
	}
	if receipts.lastFilename != "upi.jpg" {
		t.Fatalf("upload not called as expected")
	}
}

func TestSubmitReceiptUploadError(t *testing.T) {
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: domain.Plan{Version: 1}}}
	receipts := &stubReceiptStore{err: errors.New("bucket down")}
	svc := newService(repo, &stubOrderCounter{}, receipts, time.Now())

	_, err := svc.SubmitReceipt(context.Background(), "cust", "upi.jpg", "image/jpeg", strings.NewReader("img"))
	if err == nil || err.Error() != "bucket down" {
		t.Fatalf("expected upload error, got %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("plan must not change when upload fails")
	}
}

func TestRejectPaymentRequiresPending(t *testing.T) {
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: domain.Plan{Version: 1}}}
	svc := newService(repo, &stubOrderCounter{}, nil, time.Now())

	_, err := svc.RejectPayment(context.Background(), "cust")
	if !errors.Is(err, domain.ErrNoPendingPayment) {
		t.Fatalf("expected ErrNoPendingPayment, got %v", err)
	}
}

func TestRejectPaymentClearsReceipt(t *testing.T) {
	repo := &stubCustomerRepo{customer: &domain.Customer{
		ID:   "cust",
		Plan: domain.Plan{PaymentSubmitted: true, ReceiptKey: "r1", Version: 1},
	}}
	svc := newService(repo, &stubOrderCounter{}, nil, time.Now())

	c, err := svc.RejectPayment(context.Background(), "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Plan.PaymentSubmitted || c.Plan.ReceiptKey != "" {
		t.Fatalf("expected cleared payment state, got %+v", c.Plan)
	}
}

func TestRequestRenewalNotDue(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 5)}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	_, err := svc.RequestRenewal(context.Background(), "cust")
	if !errors.Is(err, domain.ErrRenewalNotDue) {
		t.Fatalf("expected ErrRenewalNotDue, got %v", err)
	}
}

func TestRequestRenewalRevokesPlan(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: activePlan(now, 0)}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	c, err := svc.RequestRenewal(context.Background(), "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := c.Plan
	if p.Paid || !p.PaymentSubmitted || p.MealsRemaining != 0 {
		t.Fatalf("unexpected plan after renewal request: %+v", p)
	}
	if p.StartDate != nil || p.EndDate != nil {
		t.Fatalf("expected cleared dates, got %v..%v", p.StartDate, p.EndDate)
	}
}

func TestRequestRenewalKeepPolicy(t *testing.T) {
	now := time.Now()
	expired := activePlan(now.AddDate(0, 0, -40), 0)
	repo := &stubCustomerRepo{customer: &domain.Customer{ID: "cust", Plan: expired}}
	svc := newService(repo, &stubOrderCounter{}, nil, now)
	svc.revokeOnRenewal = false

	c, err := svc.RequestRenewal(context.Background(), "cust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Plan.PaymentSubmitted {
		t.Fatalf("expected payment submitted")
	}
	if !c.Plan.Paid {
		t.Fatalf("keep policy must not revoke the paid flag")
	}
}

func TestMutatePlanRetriesOnConflict(t *testing.T) {
	now := time.Now()
	repo := &stubCustomerRepo{
		customer:   &domain.Customer{ID: "cust", Plan: domain.Plan{PaymentSubmitted: true, Version: 1}},
		updateErrs: []error{domain.ErrLedgerConflict, nil},
	}
	svc := newService(repo, &stubOrderCounter{}, nil, now)

	if _, err := svc.ApprovePayment(context.Background(), "cust"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(repo.versions) != 2 {
		t.Fatalf("expected 2 update attempts, got %d", len(repo.versions))
	}
}

func TestMutatePlanGivesUpAfterRetries(t *testing.T) {
	repo := &stubCustomerRepo{
		customer:   &domain.Customer{ID: "cust", Plan: domain.Plan{PaymentSubmitted: true, Version: 1}},
		updateErrs: []error{domain.ErrLedgerConflict, domain.ErrLedgerConflict, domain.ErrLedgerConflict},
	}
	svc := newService(repo, &stubOrderCounter{}, nil, time.Now())

	_, err := svc.ApprovePayment(context.Background(), "cust")
	if !errors.Is(err, domain.ErrLedgerConflict) {
		t.Fatalf("expected ErrLedgerConflict, got %v", err)
	}
}
