// README: Shop and product configuration aggregates (option groups, options, add-ons, rely-on edges).
package catalog

import (
	"time"

	"github.com/google/uuid"

	"souq/internal/types"
)

type ShopType string

const (
	ShopFood      ShopType = "food"
	ShopGroceries ShopType = "groceries"
	ShopPharmacy  ShopType = "pharmacy"
)

type Shop struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Slug        string
	Type        ShopType
	Description string
	IsActive    bool
	IsOpen      bool
	Currency    string
	DeliveryFee int64
	VATPercent  float64
	// OpensAt/ClosesAt are minutes since midnight in the shop's local day.
	OpensAt   int
	ClosesAt  int
	Location  types.Point
	CreatedAt time.Time
}

// WithinHours reports whether the time-of-day of t falls inside the shop's
// opening window. Windows where closes_at < opens_at wrap past midnight.
func (s *Shop) WithinHours(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if s.OpensAt <= s.ClosesAt {
		return minute >= s.OpensAt && minute <= s.ClosesAt
	}
	return minute >= s.OpensAt || minute <= s.ClosesAt
}

type Product struct {
	ID           uuid.UUID
	ShopID       uuid.UUID
	Title        string
	Slug         string
	Description  string
	Price        int64
	IsAvailable  bool
	NumSold      int64
	AddOns       []AddOn
	OptionGroups []OptionGroup
	CreatedAt    time.Time
}

// AddOn is a flat-priced extra, independently selectable on an order item.
type AddOn struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Title      string
	AddedPrice int64
	Sort       int
}

// OptionGroup is a set of mutually exclusive options. When ChangesPrice is
// set, the chosen option's price replaces the product's base price.
type OptionGroup struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	Title        string
	Sort         int
	ChangesPrice bool
	// RelyOn gates this group on another group's specific option having
	// been chosen in the same order item; nil means the group is always
	// required.
	RelyOn  *RelyOn
	Options []Option
}

// RelyOn points at the (group, option) pair this group depends on.
type RelyOn struct {
	GroupID  uuid.UUID
	OptionID uuid.UUID
}

type Option struct {
	ID      uuid.UUID
	GroupID uuid.UUID
	Title   string
	Sort    int
	Price   int64
}

// Group returns the option group with the given id, or nil.
func (p *Product) Group(id uuid.UUID) *OptionGroup {
	for i := range p.OptionGroups {
		if p.OptionGroups[i].ID == id {
			return &p.OptionGroups[i]
		}
	}
	return nil
}

// AddOnByID returns the add-on with the given id, or nil.
func (p *Product) AddOnByID(id uuid.UUID) *AddOn {
	for i := range p.AddOns {
		if p.AddOns[i].ID == id {
			return &p.AddOns[i]
		}
	}
	return nil
}

// OptionByID returns the option with the given id, or nil.
func (g *OptionGroup) OptionByID(id uuid.UUID) *Option {
	for i := range g.Options {
		if g.Options[i].ID == id {
			return &g.Options[i]
		}
	}
	return nil
}
