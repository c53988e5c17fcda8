package domain

import "time"

// OrderStatus is the lifecycle state of an order. Pending is the only
// non-terminal state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is a price-snapshotted line of an order. Later catalog price
// changes never affect an existing order.
type OrderItem struct {
	ItemID         string `json:"itemId"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPricePaise int64  `json:"unitPricePaise"`
}

// Order is a checked-out cart. Items and total are immutable after
// creation; only the status and approval timestamp ever change.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customerId"`
	Items      []OrderItem `json:"items"`
	TotalPaise int64       `json:"totalPaise"`
	Status     OrderStatus `json:"status"`
	IsExtra    bool        `json:"isExtraOrder"`
	CreatedAt  time.Time   `json:"createdAt"`
	ApprovedAt *time.Time  `json:"approvedAt,omitempty"`
}

// TotalQuantity sums the item quantities of the order.
func (o Order) TotalQuantity() int {
	var n int
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
