// README: Config-time validation of shops and product option structures.
package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("catalog entity not found")
	ErrBadRequest = errors.New("bad catalog request")
)

// ValidateShop enforces the shop-level invariants before persisting.
func ValidateShop(s *Shop) error {
	if s.Name == "" || s.Currency == "" {
		return fmt.Errorf("%w: name and currency are required", ErrBadRequest)
	}
	if s.VATPercent < 0 || s.VATPercent > 100 {
		return fmt.Errorf("%w: vat_percent must be within [0,100]", ErrBadRequest)
	}
	if !s.Location.Valid() {
		return fmt.Errorf("%w: location out of range", ErrBadRequest)
	}
	if s.OpensAt < 0 || s.OpensAt >= 24*60 || s.ClosesAt < 0 || s.ClosesAt >= 24*60 {
		return fmt.Errorf("%w: opening hours out of range", ErrBadRequest)
	}
	if s.DeliveryFee < 0 {
		return fmt.Errorf("%w: delivery_fee must not be negative", ErrBadRequest)
	}
	return nil
}

// ValidateProduct enforces the product configuration invariants: at most one
// changes_price group, rely-on edges target a different group on the same
// product, and a changes_price group never carries a rely-on.
func ValidateProduct(p *Product) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrBadRequest)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrBadRequest)
	}

	changesPrice := 0
	for i := range p.OptionGroups {
		g := &p.OptionGroups[i]
		if len(g.Options) == 0 {
			return fmt.Errorf("%w: option group %q has no options", ErrBadRequest, g.Title)
		}
		if g.ChangesPrice {
			changesPrice++
			if g.RelyOn != nil {
				return fmt.Errorf("%w: option group %q cannot both change the price and rely on another group", ErrBadRequest, g.Title)
			}
		}
		if g.RelyOn != nil {
			if err := validateRelyOn(p, g); err != nil {
				return err
			}
		}
	}
	if changesPrice > 1 {
		return fmt.Errorf("%w: at most one option group may change the price", ErrBadRequest)
	}
	return nil
}

func validateRelyOn(p *Product, g *OptionGroup) error {
	if g.RelyOn.GroupID == g.ID {
		return fmt.Errorf("%w: option group %q cannot rely on itself", ErrBadRequest, g.Title)
	}
	target := p.Group(g.RelyOn.GroupID)
	if target == nil {
		return fmt.Errorf("%w: option group %q relies on a group outside this product", ErrBadRequest, g.Title)
	}
	if target.OptionByID(g.RelyOn.OptionID) == nil {
		return fmt.Errorf("%w: option group %q relies on an option outside its target group", ErrBadRequest, g.Title)
	}
	return nil
}
