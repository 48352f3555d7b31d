// README: Matching store; row-locked nearest-driver reservation in PostgreSQL.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"souq/internal/geo"
	"souq/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ReserveNearest locks and marks busy the nearest eligible driver within
// radiusKm of dest, inside the caller's transaction. FOR UPDATE SKIP LOCKED
// makes concurrent reservations pick distinct drivers instead of blocking on
// or double-booking the same row.
func (s *Store) ReserveNearest(ctx context.Context, tx pgx.Tx, dest types.Point, freshSince time.Time, radiusKm float64) (*Driver, error) {
	dist := geo.DistanceExprKm("d.lat", "d.lng", "$1", "$2")
	query := fmt.Sprintf(`
		SELECT d.id, a.name, d.vehicle_type, d.is_active, d.is_available, d.is_busy,
		       d.last_online_at, d.lat, d.lng
		FROM drivers d
		JOIN accounts a ON a.id = d.id
		WHERE d.is_active
		  AND d.is_available
		  AND NOT d.is_busy
		  AND d.last_online_at >= $3
		  AND %s <= $4
		ORDER BY %s ASC
		LIMIT 1
		FOR UPDATE OF d SKIP LOCKED`, dist, dist)

	row := tx.QueryRow(ctx, query, dest.Lat, dest.Lng, freshSince, radiusKm)

	var d Driver
	err := row.Scan(&d.ID, &d.Name, &d.VehicleType, &d.IsActive, &d.IsAvailable, &d.IsBusy,
		&d.LastOnlineAt, &d.Location.Lat, &d.Location.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoDriverAvailable
	}
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `UPDATE drivers SET is_busy = TRUE WHERE id = $1 AND NOT is_busy`, d.ID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() != 1 {
		// The row lock should make this unreachable; treat it as a lost race.
		return nil, ErrNoDriverAvailable
	}
	d.IsBusy = true
	return &d, nil
}

// Release clears the busy flag, inside the caller's transaction.
func (s *Store) Release(ctx context.Context, tx pgx.Tx, driverID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE drivers SET is_busy = FALSE WHERE id = $1`, driverID)
	return err
}
