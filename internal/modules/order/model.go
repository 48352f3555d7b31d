// README: Order aggregate and forward-only status definitions.
package order

import (
	"time"

	"github.com/google/uuid"

	"souq/internal/types"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPicked    Status = "picked"
	StatusDelivered Status = "delivered"
)

// statusRank encodes the delivery flow as strictly increasing ranks; a
// transition may only raise the rank.
var statusRank = map[Status]int{
	StatusConfirmed: 1,
	StatusPicked:    2,
	StatusDelivered: 3,
}

// Rank returns the numeric rank of a status and whether it is a known one.
func Rank(s Status) (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

// CanTransition validates a status change request against the rank table.
func CanTransition(from, to Status) error {
	toRank, ok := Rank(to)
	if !ok {
		return ErrInvalidStatus
	}
	fromRank, ok := Rank(from)
	if !ok {
		return ErrInvalidStatus
	}
	// Delivered orders are immutable, and same-rank writes would replay
	// transition side effects, so only strictly forward moves pass.
	if toRank <= fromRank {
		return ErrStatusCannotRevert
	}
	return nil
}

type Order struct {
	ID       uuid.UUID
	UserID   *uuid.UUID
	DriverID *uuid.UUID
	Status   Status
	// Money amounts are minor units in the shops' currency.
	Subtotal    int64
	VAT         int64
	DeliveryFee int64
	FinalPrice  int64
	OrderedAt   time.Time
	Address     Address
	Groups      []ItemsGroup
}

// Address is the frozen shipping-address snapshot. Country and city are
// filled best-effort by the geocoding collaborator.
type Address struct {
	Area         string      `json:"area"`
	Type         string      `json:"type"`
	Street       string      `json:"street"`
	Building     string      `json:"building"`
	Floor        int         `json:"floor"`
	ApartmentNo  int         `json:"apartment_no"`
	SpecialNotes string      `json:"special_notes"`
	Country      string      `json:"country"`
	City         string      `json:"city"`
	Location     types.Point `json:"location"`
}

// ItemsGroup holds one shop's slice of the order; delivery fee and currency
// are per-shop facts, so they live here rather than on the order.
type ItemsGroup struct {
	ID          uuid.UUID
	ShopID      *uuid.UUID
	ShopName    string
	Currency    string
	DeliveryFee int64
	Items       []Item
}

// Item freezes the priced state of one ordered product; later product edits
// never alter it.
type Item struct {
	ID           uuid.UUID
	ProductID    *uuid.UUID
	ProductTitle string
	Quantity     int
	// Price is the pre-VAT total for the full quantity.
	Price          int64
	VAT            int64
	SpecialRequest string
	AddOns         []ItemAddOn
	Choices        []Choice
}

type ItemAddOn struct {
	AddOnID    uuid.UUID
	Title      string
	AddedPrice int64
}

type Choice struct {
	OptionGroupID uuid.UUID
	GroupTitle    string
	OptionID      uuid.UUID
	OptionTitle   string
}
