package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart rejects a checkout with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrQuantityOutOfRange rejects a cart quantity outside [0,10].
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	// ErrAlreadyDecided rejects an approve/cancel of a non-pending order.
	ErrAlreadyDecided = errors.New("order already decided")
	// ErrLedgerConflict indicates a plan update lost a concurrent write race
	// and should be retried after re-reading current state.
	ErrLedgerConflict = errors.New("concurrent plan update lost")
	// ErrRenewalNotDue rejects a renewal request while meals remain.
	ErrRenewalNotDue = errors.New("plan still has remaining meals")
	// ErrNoPendingPayment rejects a payment decision when no receipt is
	// awaiting review.
	ErrNoPendingPayment = errors.New("no pending payment")
)

// CapacityReason names why a cart addition was rejected by the plan ledger.
type CapacityReason string

const (
	ReasonPlanFull                 CapacityReason = "plan_full"
	ReasonItemMaxedForPlan         CapacityReason = "item_maxed_for_plan"
	ReasonExceedsRemainingCapacity CapacityReason = "exceeds_remaining_capacity"
)

// CapacityError rejects a cart addition against an active plan. The cart is
// left unchanged when it is returned.
type CapacityError struct {
	Reason CapacityReason
}

func (e *CapacityError) Error() string {
	switch e.Reason {
	case ReasonPlanFull:
		return "plan capacity exhausted"
	case ReasonItemMaxedForPlan:
		return "item ordered in too many orders this plan period"
	case ReasonExceedsRemainingCapacity:
		return "cart would exceed remaining plan capacity"
	default:
		return "capacity exceeded"
	}
}

// AsCapacityError unwraps err to a CapacityError, if it is one.
func AsCapacityError(err error) (*CapacityError, bool) {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
