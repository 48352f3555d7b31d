// README: Driver matching model: eligibility fields and reservation errors.
package matching

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"souq/internal/types"
)

// ErrNoDriverAvailable is returned when no eligible driver is inside the
// delivery radius. The order transaction must abort on it before any row is
// written.
var ErrNoDriverAvailable = errors.New("no driver available")

// Driver is the matching-relevant projection of a driver record. A driver is
// eligible iff active (vetted), available (opted in), not busy, and its
// heartbeat is inside the freshness window.
type Driver struct {
	ID           uuid.UUID
	Name         string
	VehicleType  string
	IsActive     bool
	IsAvailable  bool
	IsBusy       bool
	LastOnlineAt time.Time
	Location     types.Point
}

// Eligible reports whether the driver could be matched at time now. The
// store enforces the same predicate in SQL; this form exists for in-memory
// checks and tests.
func (d *Driver) Eligible(now time.Time, freshness time.Duration) bool {
	return d.IsActive && d.IsAvailable && !d.IsBusy &&
		!d.LastOnlineAt.Before(now.Add(-freshness))
}
