// README: Catalog service; shop-owner CRUD with config-time validation.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type CreateShopCommand struct {
	OwnerID     uuid.UUID
	Name        string
	Type        ShopType
	Description string
	Currency    string
	DeliveryFee int64
	VATPercent  float64
	OpensAt     int
	ClosesAt    int
	Lat, Lng    float64
}

func (s *Service) CreateShop(ctx context.Context, cmd CreateShopCommand) (*Shop, error) {
	shop := &Shop{
		ID:          uuid.New(),
		OwnerID:     cmd.OwnerID,
		Name:        cmd.Name,
		Slug:        slugify(cmd.Name),
		Type:        cmd.Type,
		Description: cmd.Description,
		IsActive:    false, // vetted by an admin before going live
		IsOpen:      true,
		Currency:    cmd.Currency,
		DeliveryFee: cmd.DeliveryFee,
		VATPercent:  cmd.VATPercent,
		OpensAt:     cmd.OpensAt,
		ClosesAt:    cmd.ClosesAt,
	}
	shop.Location.Lat, shop.Location.Lng = cmd.Lat, cmd.Lng
	if shop.Type == "" {
		shop.Type = ShopFood
	}
	if err := ValidateShop(shop); err != nil {
		return nil, err
	}
	if err := s.store.CreateShop(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

type CreateProductCommand struct {
	ShopID      uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Price       int64
	AddOns      []AddOnSpec
	Groups      []OptionGroupSpec
}

type AddOnSpec struct {
	Title      string
	AddedPrice int64
}

type OptionGroupSpec struct {
	Title        string
	ChangesPrice bool
	// RelyOnGroup/RelyOnOption reference earlier groups by index into the
	// Groups slice and their Options slice; negative means no dependency.
	RelyOnGroup  int
	RelyOnOption int
	Options      []OptionSpec
}

type OptionSpec struct {
	Title string
	Price int64
}

func (s *Service) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*Product, error) {
	shop, err := s.store.GetShop(ctx, cmd.ShopID)
	if err != nil {
		return nil, err
	}
	if shop.OwnerID != cmd.OwnerID {
		return nil, fmt.Errorf("%w: shop does not belong to this account", ErrBadRequest)
	}

	p := &Product{
		ID:          uuid.New(),
		ShopID:      cmd.ShopID,
		Title:       cmd.Title,
		Slug:        slugify(cmd.Title),
		Description: cmd.Description,
		Price:       cmd.Price,
		IsAvailable: true,
	}
	for i, a := range cmd.AddOns {
		p.AddOns = append(p.AddOns, AddOn{
			ID:         uuid.New(),
			ProductID:  p.ID,
			Title:      a.Title,
			AddedPrice: a.AddedPrice,
			Sort:       i + 1,
		})
	}
	for i, gs := range cmd.Groups {
		g := OptionGroup{
			ID:           uuid.New(),
			ProductID:    p.ID,
			Title:        gs.Title,
			Sort:         i + 1,
			ChangesPrice: gs.ChangesPrice,
		}
		for j, os := range gs.Options {
			g.Options = append(g.Options, Option{
				ID:      uuid.New(),
				GroupID: g.ID,
				Title:   os.Title,
				Sort:    j + 1,
				Price:   os.Price,
			})
		}
		p.OptionGroups = append(p.OptionGroups, g)
	}
	// Resolve rely-on indices once all group/option ids exist.
	for i, gs := range cmd.Groups {
		if gs.RelyOnGroup < 0 {
			continue
		}
		if gs.RelyOnGroup >= len(p.OptionGroups) {
			return nil, fmt.Errorf("%w: rely_on group index out of range", ErrBadRequest)
		}
		target := &p.OptionGroups[gs.RelyOnGroup]
		if gs.RelyOnOption < 0 || gs.RelyOnOption >= len(target.Options) {
			return nil, fmt.Errorf("%w: rely_on option index out of range", ErrBadRequest)
		}
		p.OptionGroups[i].RelyOn = &RelyOn{
			GroupID:  target.ID,
			OptionID: target.Options[gs.RelyOnOption].ID,
		}
	}

	if err := ValidateProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	return s.store.GetShop(ctx, id)
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, shopID uuid.UUID) ([]Product, error) {
	return s.store.ListProducts(ctx, shopID)
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	// Random suffix keeps slugs unique without a read-check round trip.
	return slug + "-" + uuid.NewString()[:8]
}
