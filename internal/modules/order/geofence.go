// README: Per-shop availability and delivery-radius checks.
package order

import (
	"time"

	"souq/internal/geo"
	"souq/internal/modules/catalog"
	"souq/internal/types"
)

// checkShop verifies one distinct shop can serve the order right now: it
// must be vetted, open, inside its operating hours, and within radiusKm of
// the shipping address. Returns nil when the shop passes.
func checkShop(shop *catalog.Shop, at time.Time, dest types.Point, radiusKm float64) *ValidationError {
	if !shop.IsActive || !shop.IsOpen || !shop.WithinHours(at) {
		e := orderError(CodeShopUnavailable, "shop %q is closed or inactive", shop.Name)
		return &e
	}
	if geo.HaversineKm(shop.Location, dest) > radiusKm {
		e := orderError(CodeShopTooFar, "shop %q is outside the delivery radius", shop.Name)
		return &e
	}
	return nil
}
