// README: Catalog store backed by PostgreSQL.
package catalog

import (
	"context"
	"errors"
	"fmt"

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

func (s *Store) CreateShop(ctx context.Context, shop *Shop) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO shops (
			id, owner_id, name, slug, shop_type, description,
			is_active, is_open, currency, delivery_fee, vat_percent,
			opens_at, closes_at, lat, lng
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15
		)`,
		shop.ID, shop.OwnerID, shop.Name, shop.Slug, string(shop.Type), shop.Description,
		shop.IsActive, shop.IsOpen, shop.Currency, shop.DeliveryFee, shop.VATPercent,
		shop.OpensAt, shop.ClosesAt, shop.Location.Lat, shop.Location.Lng,
	)
	return err
}

const shopColumns = `
	id, owner_id, name, slug, shop_type, description,
	is_active, is_open, currency, delivery_fee, vat_percent,
	opens_at, closes_at, lat, lng, created_at`

func (s *Store) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shopColumns+` FROM shops WHERE id = $1`, id)
	return scanShop(row)
}

func (s *Store) GetShopBySlug(ctx context.Context, slug string) (*Shop, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shopColumns+` FROM shops WHERE slug = $1`, slug)
	return scanShop(row)
}

// ShopsByID loads the given shops in one round trip.
func (s *Store) ShopsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Shop, error) {
	rows, err := s.db.Query(ctx, `SELECT`+shopColumns+` FROM shops WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shops := make(map[uuid.UUID]*Shop, len(ids))
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops[shop.ID] = shop
	}
	return shops, rows.Err()
}

func scanShop(row pgx.Row) (*Shop, error) {
	var shop Shop
	var shopType string
	err := row.Scan(
		&shop.ID, &shop.OwnerID, &shop.Name, &shop.Slug, &shopType, &shop.Description,
		&shop.IsActive, &shop.IsOpen, &shop.Currency, &shop.DeliveryFee, &shop.VATPercent,
		&shop.OpensAt, &shop.ClosesAt, &shop.Location.Lat, &shop.Location.Lng, &shop.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	shop.Type = ShopType(shopType)
	return &shop, nil
}

// CreateProduct persists the product with its option groups, options and
// add-ons in one transaction.
func (s *Store) CreateProduct(ctx context.Context, p *Product) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, shop_id, title, slug, description, price, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ShopID, p.Title, p.Slug, p.Description, p.Price, p.IsAvailable,
	)
	if err != nil {
		return err
	}

	for i := range p.AddOns {
		a := &p.AddOns[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO add_ons (id, product_id, title, added_price, sort)
			VALUES ($1, $2, $3, $4, $5)`,
			a.ID, p.ID, a.Title, a.AddedPrice, a.Sort,
		)
		if err != nil {
			return err
		}
	}

	for i := range p.OptionGroups {
		g := &p.OptionGroups[i]
		var relyGroup, relyOption *uuid.UUID
		if g.RelyOn != nil {
			relyGroup, relyOption = &g.RelyOn.GroupID, &g.RelyOn.OptionID
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO option_groups (id, product_id, title, sort, changes_price, rely_on_group_id, rely_on_option_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, p.ID, g.Title, g.Sort, g.ChangesPrice, relyGroup, relyOption,
		)
		if err != nil {
			return err
		}
		for j := range g.Options {
			o := &g.Options[j]
			_, err = tx.Exec(ctx, `
				INSERT INTO options (id, option_group_id, title, sort, price)
				VALUES ($1, $2, $3, $4, $5)`,
				o.ID, g.ID, o.Title, o.Sort, o.Price,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// ProductsByID loads products with their full option configuration.
func (s *Store) ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shop_id, title, slug, description, price, is_available, num_sold, created_at
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Title, &p.Slug, &p.Description,
			&p.Price, &p.IsAvailable, &p.NumSold, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		products[p.ID] = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	if err := s.loadAddOns(ctx, products); err != nil {
		return nil, err
	}
	if err := s.loadOptionGroups(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	products, err := s.ProductsByID(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	p, ok := products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListProducts returns the products of one shop, without option details.
func (s *Store) ListProducts(ctx context.Context, shopID uuid.UUID) ([]Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shop_id, title, slug, description, price, is_available, num_sold, created_at
		FROM products WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Title, &p.Slug, &p.Description,
			&p.Price, &p.IsAvailable, &p.NumSold, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadAddOns(ctx context.Context, products map[uuid.UUID]*Product) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, title, added_price, sort
		FROM add_ons WHERE product_id = ANY($1) ORDER BY sort`, keysOf(products))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AddOn
		if err := rows.Scan(&a.ID, &a.ProductID, &a.Title, &a.AddedPrice, &a.Sort); err != nil {
			return err
		}
		p := products[a.ProductID]
		p.AddOns = append(p.AddOns, a)
	}
	return rows.Err()
}

func (s *Store) loadOptionGroups(ctx context.Context, products map[uuid.UUID]*Product) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, title, sort, changes_price, rely_on_group_id, rely_on_option_id
		FROM option_groups WHERE product_id = ANY($1) ORDER BY sort`, keysOf(products))
	if err != nil {
		return err
	}
	for rows.Next() {
		var g OptionGroup
		var relyGroup, relyOption *uuid.UUID
		if err := rows.Scan(&g.ID, &g.ProductID, &g.Title, &g.Sort, &g.ChangesPrice, &relyGroup, &relyOption); err != nil {
			rows.Close()
			return err
		}
		if relyGroup != nil && relyOption != nil {
			g.RelyOn = &RelyOn{GroupID: *relyGroup, OptionID: *relyOption}
		}
		p := products[g.ProductID]
		p.OptionGroups = append(p.OptionGroups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// Index after all appends so slice growth cannot invalidate pointers.
	groupIndex := make(map[uuid.UUID]*OptionGroup)
	for _, p := range products {
		for i := range p.OptionGroups {
			groupIndex[p.OptionGroups[i].ID] = &p.OptionGroups[i]
		}
	}
	if len(groupIndex) == 0 {
		return nil
	}

	groupIDs := make([]uuid.UUID, 0, len(groupIndex))
	for id := range groupIndex {
		groupIDs = append(groupIDs, id)
	}
	optRows, err := s.db.Query(ctx, `
		SELECT id, option_group_id, title, sort, price
		FROM options WHERE option_group_id = ANY($1) ORDER BY sort`, groupIDs)
	if err != nil {
		return err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o Option
		if err := optRows.Scan(&o.ID, &o.GroupID, &o.Title, &o.Sort, &o.Price); err != nil {
			return err
		}
		g, ok := groupIndex[o.GroupID]
		if !ok {
			return fmt.Errorf("option %s references unknown group %s", o.ID, o.GroupID)
		}
		g.Options = append(g.Options, o)
	}
	return optRows.Err()
}

func keysOf(products map[uuid.UUID]*Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	return ids
}
