// Package pricing computes order totals in paise. All functions are pure so
// re-pricing the same lines is idempotent.
package pricing

import "tiffinbox/internal/domain"

// surcharge applied to extra orders, expressed as a ratio to keep the math
// in integers: total * 12 / 10 == total * 1.2.
const (
	surchargeNum int64 = 12
	surchargeDen int64 = 10
)

// Subtotal sums unitPrice * quantity over the lines.
func Subtotal(items []domain.OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPricePaise * int64(it.Quantity)
	}
	return total
}

// Total prices the lines, applying the 1.2x extra-order surcharge with
// half-up rounding when extra is set.
func Total(items []domain.OrderItem, extra bool) int64 {
	total := Subtotal(items)
	if extra {
		total = (total*surchargeNum + surchargeDen/2) / surchargeDen
	}
	return total
}
