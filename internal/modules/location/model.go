// README: Driver live-location updates and proximity listings.
package location

import (
	"time"

	"github.com/google/uuid"

	"souq/internal/types"
)

type Update struct {
	DriverID uuid.UUID
	Position types.Point
}

// NearbyDriver is a listing entry ordered by ascending distance.
type NearbyDriver struct {
	ID         uuid.UUID
	Name       string
	DistanceKm float64
	Position   types.Point
}

type Availability struct {
	DriverID    uuid.UUID
	IsAvailable bool
	UpdatedAt   time.Time
}
