// README: Location service; validates coordinates and applies listing bounds.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"souq/internal/config"
	"souq/internal/types"
)

var (
	ErrDriverNotFound = errors.New("driver not found")
	ErrBadCoordinates = errors.New("coordinates out of range")
)

const nearbyListLimit = 10

type Service struct {
	store *Store
	cfg   config.DeliveryConfig
	now   func() time.Time
}

func NewService(store *Store, cfg config.DeliveryConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// Update records a driver position report. A position report doubles as a
// heartbeat.
func (s *Service) Update(ctx context.Context, u Update) error {
	if !u.Position.Valid() {
		return ErrBadCoordinates
	}
	return s.store.SetPosition(ctx, u, s.now())
}

func (s *Service) Heartbeat(ctx context.Context, driverID uuid.UUID) error {
	return s.store.Heartbeat(ctx, driverID, s.now())
}

func (s *Service) SetAvailability(ctx context.Context, driverID uuid.UUID, available bool) error {
	return s.store.SetAvailability(ctx, driverID, available)
}

// Nearby lists drivers around a point within the delivery radius.
func (s *Service) Nearby(ctx context.Context, p types.Point) ([]NearbyDriver, error) {
	if !p.Valid() {
		return nil, ErrBadCoordinates
	}
	return s.store.Nearby(ctx, p, s.cfg.RadiusKm, nearbyListLimit)
}
