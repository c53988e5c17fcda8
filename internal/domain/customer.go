package domain

import "time"

// Roles supplied by the identity collaborator.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
)

// Customer is a registered user with an embedded subscription plan.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}
