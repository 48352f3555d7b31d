// README: Per-item price computation and order totals.
package order

import (
	"math"

	"souq/internal/modules/catalog"
)

// priceItem computes the frozen pre-VAT price of a validated item: the base
// price (or the chosen option's price when a group changes the price) plus
// all selected add-ons, times quantity. VAT is derived from the shop's rate.
func priceItem(p *catalog.Product, shop *catalog.Shop, req ItemRequest) (price, vat int64) {
	unit := p.Price
	for i := range p.OptionGroups {
		g := &p.OptionGroups[i]
		if !g.ChangesPrice {
			continue
		}
		for _, c := range req.Choices {
			if c.OptionGroupID != g.ID {
				continue
			}
			if opt := g.OptionByID(c.OptionID); opt != nil {
				// The option's price replaces, not augments, the base.
				unit = opt.Price
			}
		}
	}
	for _, id := range req.AddOnIDs {
		if a := p.AddOnByID(id); a != nil {
			unit += a.AddedPrice
		}
	}

	price = unit * int64(req.Quantity)
	vat = int64(math.Round(float64(price) * shop.VATPercent / 100))
	return price, vat
}

// totals accumulates the order-level breakdown. Each distinct shop's
// delivery fee is counted exactly once, regardless of item count.
type totals struct {
	Subtotal    int64
	VAT         int64
	DeliveryFee int64
}

func (t totals) Final() int64 {
	return t.Subtotal + t.VAT + t.DeliveryFee
}
