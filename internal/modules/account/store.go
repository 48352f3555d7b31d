// README: Account store backed by Postgres.
package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create inserts the account and, for drivers, the matching drivers row in
// one transaction so a driver account never exists without its driver state.
func (s *Store) Create(ctx context.Context, a *Account) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, role, phone)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Phone)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}

	if a.Role == RoleDriver {
		if _, err := tx.Exec(ctx, "INSERT INTO drivers (id) VALUES ($1)", a.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, phone, created_at
		FROM accounts WHERE email = $1`, email))
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, phone, created_at
		FROM accounts WHERE id = $1`, id))
}

func (s *Store) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Phone, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAddress(ctx context.Context, addr *SavedAddress) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_addresses
			(id, account_id, title, area, type, street, building, floor,
			 apartment_no, special_notes, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		addr.ID, addr.AccountID, addr.Title, addr.Area, addr.Type, addr.Street,
		addr.Building, addr.Floor, addr.ApartmentNo, addr.SpecialNotes,
		addr.Location.Lat, addr.Location.Lng)
	return err
}

func (s *Store) ListAddresses(ctx context.Context, accountID uuid.UUID) ([]SavedAddress, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, account_id, title, area, type, street, building, floor,
		       apartment_no, special_notes, lat, lng, created_at
		FROM user_addresses WHERE account_id = $1
		ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedAddress
	for rows.Next() {
		var a SavedAddress
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Title, &a.Area, &a.Type,
			&a.Street, &a.Building, &a.Floor, &a.ApartmentNo, &a.SpecialNotes,
			&a.Location.Lat, &a.Location.Lng, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAddress(ctx context.Context, accountID, addressID uuid.UUID) (*SavedAddress, error) {
	var a SavedAddress
	err := s.db.QueryRow(ctx, `
		SELECT id, account_id, title, area, type, street, building, floor,
		       apartment_no, special_notes, lat, lng, created_at
		FROM user_addresses WHERE id = $1 AND account_id = $2`,
		addressID, accountID).Scan(&a.ID, &a.AccountID, &a.Title, &a.Area,
		&a.Type, &a.Street, &a.Building, &a.Floor, &a.ApartmentNo,
		&a.SpecialNotes, &a.Location.Lat, &a.Location.Lng, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpdateAddress(ctx context.Context, addr *SavedAddress) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE user_addresses
		SET title = $3, area = $4, type = $5, street = $6, building = $7,
		    floor = $8, apartment_no = $9, special_notes = $10, lat = $11, lng = $12
		WHERE id = $1 AND account_id = $2`,
		addr.ID, addr.AccountID, addr.Title, addr.Area, addr.Type, addr.Street,
		addr.Building, addr.Floor, addr.ApartmentNo, addr.SpecialNotes,
		addr.Location.Lat, addr.Location.Lng)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAddress(ctx context.Context, accountID, addressID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM user_addresses WHERE id = $1 AND account_id = $2",
		addressID, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
