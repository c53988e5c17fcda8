package domain

import "time"

const (
	// PlanCapacity is the number of meal units a freshly activated plan holds.
	PlanCapacity = 30
	// PlanPeriodDays is the length of a plan window after activation.
	PlanPeriodDays = 30
	// MaxOrdersPerItem caps how many distinct orders within one plan period
	// may reference the same menu item.
	MaxOrdersPerItem = 5
	// MaxLineQuantity caps a single cart line, independent of plan capacity.
	MaxLineQuantity = 10
)

// PlanStatus is the derived lifecycle state of a subscription plan.
type PlanStatus string

const (
	PlanInactive         PlanStatus = "inactive"
	PlanPaymentSubmitted PlanStatus = "payment_submitted"
	PlanActive           PlanStatus = "active"
	PlanExpired          PlanStatus = "expired"
)

// Plan is a customer's meal subscription ledger. Status is never stored;
// it is classified from the paid flag and the plan window at read time.
type Plan struct {
	Paid             bool       `json:"paid"`
	PaymentSubmitted bool       `json:"paymentSubmitted"`
	TotalMeals       int        `json:"totalMeals"`
	MealsRemaining   int        `json:"mealsRemaining"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	ReceiptKey       string     `json:"-"`
	Version          int64      `json:"-"`
}

// Status classifies the plan at the given instant.
func (p Plan) Status(now time.Time) PlanStatus {
	switch {
	case p.Paid && p.EndDate != nil && !p.EndDate.Before(now):
		return PlanActive
	case p.Paid:
		return PlanExpired
	case p.PaymentSubmitted:
		return PlanPaymentSubmitted
	default:
		return PlanInactive
	}
}

// ActiveAt reports whether the plan window covers the given instant.
func (p Plan) ActiveAt(now time.Time) bool {
	return p.Status(now) == PlanActive
}

// Activate resets the plan to a fresh fully-funded window starting now.
// Re-activating an already active plan re-issues the window and overwrites
// any partially used capacity; renewal is re-approval.
func (p *Plan) Activate(now time.Time) {
	end := now.AddDate(0, 0, PlanPeriodDays)
	p.Paid = true
	p.PaymentSubmitted = false
	p.TotalMeals = PlanCapacity
	p.MealsRemaining = PlanCapacity
	p.StartDate = &now
	p.EndDate = &end
}

// Decrement consumes qty meal units, clamping at zero.
func (p *Plan) Decrement(qty int) {
	p.MealsRemaining -= qty
	if p.MealsRemaining < 0 {
		p.MealsRemaining = 0
	}
}
