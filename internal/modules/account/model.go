// README: Account and saved-address models with the role enum.
package account

import (
	"time"

	"github.com/google/uuid"

	"souq/internal/types"
)

// Role is the single source of truth for what an account may do; there is
// no per-capability flag sprinkled elsewhere.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleDriver    Role = "driver"
	RoleShopOwner Role = "shop_owner"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleShopOwner, RoleAdmin:
		return true
	}
	return false
}

type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	CreatedAt    time.Time
}

// SavedAddress is a reusable shipping address on the customer's profile.
// Orders copy it into their own snapshot; edits here never touch past
// orders.
type SavedAddress struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Title        string
	Area         string
	Type         string
	Street       string
	Building     string
	Floor        int
	ApartmentNo  int
	SpecialNotes string
	Location     types.Point
	CreatedAt    time.Time
}
