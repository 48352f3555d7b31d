// README: Matching service applies the configured radius and freshness window.
package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"souq/internal/config"
	"souq/internal/types"
)

type Service struct {
	store *Store
	cfg   config.DeliveryConfig
	now   func() time.Time
}

func NewService(store *Store, cfg config.DeliveryConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// ReserveNearest finds and reserves the nearest eligible driver for the
// destination. Must run inside the order-creation transaction so the
// reservation rolls back with it.
func (s *Service) ReserveNearest(ctx context.Context, tx pgx.Tx, dest types.Point) (*Driver, error) {
	freshSince := s.now().Add(-time.Duration(s.cfg.DriverFreshnessSeconds) * time.Second)
	return s.store.ReserveNearest(ctx, tx, dest, freshSince, s.cfg.RadiusKm)
}

// Release frees the driver after delivery, inside the status transaction.
func (s *Service) Release(ctx context.Context, tx pgx.Tx, driverID uuid.UUID) error {
	return s.store.Release(ctx, tx, driverID)
}
