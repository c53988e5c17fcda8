package domain

// MenuItem is one orderable entry of the fixed catalog. The menu is seeded
// once and never mutated at runtime.
type MenuItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	UnitPricePaise int64  `json:"unitPricePaise"`
	Calories       int    `json:"calories"`
}

// CartLine is one staged entry of a customer's cart.
type CartLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}
