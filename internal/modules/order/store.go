// README: Order store backed by PostgreSQL; aggregate writes run inside the caller's transaction.
package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.db.Begin(ctx)
}

// CreateTx persists the order with all of its children. The caller owns the
// transaction: the driver reservation happens in the same tx, so any failure
// here rolls the reservation back too.
func (s *Store) CreateTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, driver_id, status, subtotal, vat, delivery_fee, final_price, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.UserID, o.DriverID, string(o.Status),
		o.Subtotal, o.VAT, o.DeliveryFee, o.FinalPrice, o.OrderedAt,
	)
	if err != nil {
		return err
	}

	a := o.Address
	_, err = tx.Exec(ctx, `
		INSERT INTO order_addresses (order_id, area, type, street, building, floor, apartment_no, special_notes, country, city, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, a.Area, a.Type, a.Street, a.Building, a.Floor, a.ApartmentNo,
		a.SpecialNotes, a.Country, a.City, a.Location.Lat, a.Location.Lng,
	)
	if err != nil {
		return err
	}

	for gi := range o.Groups {
		g := &o.Groups[gi]
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items_groups (id, order_id, shop_id, shop_name, currency, delivery_fee)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID, o.ID, g.ShopID, g.ShopName, g.Currency, g.DeliveryFee,
		)
		if err != nil {
			return err
		}
		for ii := range g.Items {
			it := &g.Items[ii]
			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (id, group_id, product_id, product_title, quantity, price, vat, special_request)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				it.ID, g.ID, it.ProductID, it.ProductTitle, it.Quantity, it.Price, it.VAT, it.SpecialRequest,
			)
			if err != nil {
				return err
			}
			for _, ao := range it.AddOns {
				_, err = tx.Exec(ctx, `
					INSERT INTO order_item_add_ons (order_item_id, add_on_id, title, added_price)
					VALUES ($1, $2, $3, $4)`,
					it.ID, ao.AddOnID, ao.Title, ao.AddedPrice,
				)
				if err != nil {
					return err
				}
			}
			for _, c := range it.Choices {
				_, err = tx.Exec(ctx, `
					INSERT INTO order_item_choices (order_item_id, option_group_id, option_id, group_title, option_title)
					VALUES ($1, $2, $3, $4, $5)`,
					it.ID, c.OptionGroupID, c.OptionID, c.GroupTitle, c.OptionTitle,
				)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// IncrementNumSoldTx bumps the sold counter at the storage layer; never a
// read-modify-write in application memory.
func (s *Store) IncrementNumSoldTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	_, err := tx.Exec(ctx, `UPDATE products SET num_sold = num_sold + $1 WHERE id = $2`, quantity, productID)
	return err
}

// GetForUpdateTx loads the fields the status machine needs, locking the row
// for the remainder of the transaction.
func (s *Store) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (status Status, driverID *uuid.UUID, err error) {
	var st string
	row := tx.QueryRow(ctx, `SELECT status, driver_id FROM orders WHERE id = $1 FOR UPDATE`, id)
	err = row.Scan(&st, &driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return Status(st), driverID, nil
}

// UpdateStatusTx performs the compare-and-set status write.
func (s *Store) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to Status) (bool, error) {
	tag, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.driver_id, o.status, o.subtotal, o.vat, o.delivery_fee, o.final_price, o.ordered_at,
		       a.area, a.type, a.street, a.building, a.floor, a.apartment_no, a.special_notes, a.country, a.city, a.lat, a.lng
		FROM orders o
		JOIN order_addresses a ON a.order_id = o.id
		WHERE o.id = $1`, id)

	var o Order
	var st string
	err := row.Scan(&o.ID, &o.UserID, &o.DriverID, &st, &o.Subtotal, &o.VAT, &o.DeliveryFee, &o.FinalPrice, &o.OrderedAt,
		&o.Address.Area, &o.Address.Type, &o.Address.Street, &o.Address.Building, &o.Address.Floor,
		&o.Address.ApartmentNo, &o.Address.SpecialNotes, &o.Address.Country, &o.Address.City,
		&o.Address.Location.Lat, &o.Address.Location.Lng)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(st)

	if err := s.loadGroups(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) loadGroups(ctx context.Context, o *Order) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, shop_id, shop_name, currency, delivery_fee
		FROM order_items_groups WHERE order_id = $1`, o.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var g ItemsGroup
		if err := rows.Scan(&g.ID, &g.ShopID, &g.ShopName, &g.Currency, &g.DeliveryFee); err != nil {
			rows.Close()
			return err
		}
		o.Groups = append(o.Groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for gi := range o.Groups {
		if err := s.loadItems(ctx, &o.Groups[gi]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context, g *ItemsGroup) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, product_title, quantity, price, vat, special_request
		FROM order_items WHERE group_id = $1`, g.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductTitle, &it.Quantity, &it.Price, &it.VAT, &it.SpecialRequest); err != nil {
			rows.Close()
			return err
		}
		g.Items = append(g.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for ii := range g.Items {
		it := &g.Items[ii]
		aoRows, err := s.db.Query(ctx, `
			SELECT add_on_id, title, added_price FROM order_item_add_ons WHERE order_item_id = $1`, it.ID)
		if err != nil {
			return err
		}
		for aoRows.Next() {
			var ao ItemAddOn
			if err := aoRows.Scan(&ao.AddOnID, &ao.Title, &ao.AddedPrice); err != nil {
				aoRows.Close()
				return err
			}
			it.AddOns = append(it.AddOns, ao)
		}
		aoRows.Close()
		if err := aoRows.Err(); err != nil {
			return err
		}

		cRows, err := s.db.Query(ctx, `
			SELECT option_group_id, option_id, group_title, option_title
			FROM order_item_choices WHERE order_item_id = $1`, it.ID)
		if err != nil {
			return err
		}
		for cRows.Next() {
			var c Choice
			if err := cRows.Scan(&c.OptionGroupID, &c.OptionID, &c.GroupTitle, &c.OptionTitle); err != nil {
				cRows.Close()
				return err
			}
			it.Choices = append(it.Choices, c)
		}
		cRows.Close()
		if err := cRows.Err(); err != nil {
			return err
		}
	}
	return nil
}

// ListForUser returns summaries of a user's orders, newest first.
func (s *Store) ListForUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.list(ctx, `WHERE o.user_id = $1`, userID)
}

// ListAll returns summaries of every order, newest first. Reserved for
// administrative callers.
func (s *Store) ListAll(ctx context.Context) ([]Order, error) {
	return s.list(ctx, ``)
}

// ListForDriver returns summaries of a driver's served orders, newest first.
func (s *Store) ListForDriver(ctx context.Context, driverID uuid.UUID) ([]Order, error) {
	return s.list(ctx, `WHERE o.driver_id = $1`, driverID)
}

// ListForShopOwner returns summaries of orders containing any shop owned by
// the account, newest first.
func (s *Store) ListForShopOwner(ctx context.Context, ownerID uuid.UUID) ([]Order, error) {
	return s.list(ctx, `
		WHERE EXISTS (
			SELECT 1 FROM order_items_groups g
			JOIN shops sh ON sh.id = g.shop_id
			WHERE g.order_id = o.id AND sh.owner_id = $1
		)`, ownerID)
}

func (s *Store) list(ctx context.Context, where string, args ...any) ([]Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT o.id, o.user_id, o.driver_id, o.status, o.subtotal, o.vat, o.delivery_fee, o.final_price, o.ordered_at
		FROM orders o `+where+` ORDER BY o.ordered_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var st string
		if err := rows.Scan(&o.ID, &o.UserID, &o.DriverID, &st, &o.Subtotal, &o.VAT, &o.DeliveryFee, &o.FinalPrice, &o.OrderedAt); err != nil {
			return nil, err
		}
		o.Status = Status(st)
		out = append(out, o)
	}
	return out, rows.Err()
}

// IsShopParticipant reports whether the account owns any shop in the order.
func (s *Store) IsShopParticipant(ctx context.Context, orderID, ownerID uuid.UUID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items_groups g
			JOIN shops sh ON sh.id = g.shop_id
			WHERE g.order_id = $1 AND sh.owner_id = $2
		)`, orderID, ownerID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
