// README: Location store backed by Redis GEO (proximity listing) and Postgres (matchable state).
package location

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"souq/internal/types"
)

const driverGeoKey = "location:drivers"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// SetPosition writes the driver position to both stores. Postgres is the
// source of truth for matching; the Redis GEO set serves proximity listings.
func (s *Store) SetPosition(ctx context.Context, u Update, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET lat = $1, lng = $2, last_online_at = $3 WHERE id = $4`,
		u.Position.Lat, u.Position.Lng, at, u.DriverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrDriverNotFound
	}
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      u.DriverID.String(),
		Longitude: u.Position.Lng,
		Latitude:  u.Position.Lat,
	}).Err()
}

// Heartbeat refreshes the driver's liveness timestamp without moving it.
func (s *Store) Heartbeat(ctx context.Context, driverID uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE drivers SET last_online_at = $1 WHERE id = $2`, at, driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrDriverNotFound
	}
	return nil
}

func (s *Store) SetAvailability(ctx context.Context, driverID uuid.UUID, available bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE drivers SET is_available = $1 WHERE id = $2`, available, driverID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrDriverNotFound
	}
	if !available {
		// Drop opted-out drivers from the listing index.
		return s.redis.ZRem(ctx, driverGeoKey, driverID.String()).Err()
	}
	return nil
}

// Nearby returns drivers within radiusKm of p, nearest first.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]NearbyDriver, error) {
	results, err := s.redis.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]NearbyDriver, 0, len(results))
	for _, r := range results {
		id, err := uuid.Parse(r.Name)
		if err != nil {
			continue
		}
		out = append(out, NearbyDriver{
			ID:         id,
			DistanceKm: r.Dist,
			Position:   types.Point{Lat: r.Latitude, Lng: r.Longitude},
		})
	}
	return s.hydrateNames(ctx, out)
}

func (s *Store) hydrateNames(ctx context.Context, drivers []NearbyDriver) ([]NearbyDriver, error) {
	if len(drivers) == 0 {
		return drivers, nil
	}
	ids := make([]uuid.UUID, len(drivers))
	for i, d := range drivers {
		ids[i] = d.ID
	}
	rows, err := s.db.Query(ctx, `SELECT id, name FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(drivers))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range drivers {
		drivers[i].Name = names[drivers[i].ID]
	}
	return drivers, nil
}
