// README: Order service; validation, pricing, geofencing, driver reservation and assembly.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"souq/internal/config"
	"souq/internal/modules/catalog"
	"souq/internal/modules/matching"
	"souq/internal/types"
)

// CatalogReader supplies the product configuration and shop records the
// order pipeline validates against.
type CatalogReader interface {
	ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
	ShopsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Shop, error)
}

// DriverReserver reserves and releases drivers inside the order transaction.
type DriverReserver interface {
	ReserveNearest(ctx context.Context, tx pgx.Tx, dest types.Point) (*matching.Driver, error)
	Release(ctx context.Context, tx pgx.Tx, driverID uuid.UUID) error
}

// Geocoder resolves country/city for the address snapshot. Best-effort: a
// failure degrades to empty strings and never blocks the order.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p types.Point) (country, city string, err error)
}

type Service struct {
	store    *Store
	catalog  CatalogReader
	drivers  DriverReserver
	geocoder Geocoder
	cfg      config.DeliveryConfig
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(store *Store, cat CatalogReader, drivers DriverReserver, geocoder Geocoder, cfg config.DeliveryConfig, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  cat,
		drivers:  drivers,
		geocoder: geocoder,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type CreateCommand struct {
	UserID  uuid.UUID
	Items   []ItemRequest
	Address Address
}

// Create runs the full order pipeline: item validation, per-shop
// geofencing, pricing, driver reservation and atomic persistence. Errors
// surface in a fixed layer order (item, then shop, then driver) so a failed
// request always reports the same problems.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrBadRequest
	}
	if !cmd.Address.Location.Valid() {
		return nil, ErrBadRequest
	}
	for _, it := range cmd.Items {
		if it.Quantity <= 0 {
			return nil, ErrBadRequest
		}
	}

	productIDs := make([]uuid.UUID, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := s.catalog.ProductsByID(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	var verrs ValidationErrors
	for i, it := range cmd.Items {
		p, ok := products[it.ProductID]
		if !ok {
			// Unknown products surface like delisted ones; the caller
			// cannot distinguish the two and should not.
			verrs = append(verrs, itemError(i, CodeProductUnavailable, "product %s is not available", it.ProductID))
			continue
		}
		verrs = append(verrs, validateItem(i, p, it)...)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	// Distinct shops in first-encounter order keeps error reporting and
	// group layout deterministic.
	shopOrder := make([]uuid.UUID, 0, len(cmd.Items))
	seen := make(map[uuid.UUID]bool)
	for _, it := range cmd.Items {
		shopID := products[it.ProductID].ShopID
		if !seen[shopID] {
			seen[shopID] = true
			shopOrder = append(shopOrder, shopID)
		}
	}
	shops, err := s.catalog.ShopsByID(ctx, shopOrder)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, shopID := range shopOrder {
		shop, ok := shops[shopID]
		if !ok {
			verrs = append(verrs, orderError(CodeShopUnavailable, "shop %s is not available", shopID))
			continue
		}
		if e := checkShop(shop, now, cmd.Address.Location, s.cfg.RadiusKm); e != nil {
			verrs = append(verrs, *e)
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	o := s.assemble(cmd, products, shops, shopOrder, now)

	// Cosmetic enrichment only; the order must not fail on a geocoder
	// outage.
	if s.geocoder != nil {
		country, city, err := s.geocoder.ReverseGeocode(ctx, cmd.Address.Location)
		if err != nil {
			s.log.WithError(err).Warn("reverse geocode failed; storing address without country/city")
		} else {
			o.Address.Country, o.Address.City = country, city
		}
	}

	// One all-or-nothing transaction: reserving the driver, writing the
	// aggregate and bumping sold counters either all land or none do.
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	driver, err := s.drivers.ReserveNearest(ctx, tx, cmd.Address.Location)
	if err != nil {
		if err == matching.ErrNoDriverAvailable {
			return nil, ValidationErrors{orderError(CodeNoDriverAvailable, "no driver available near the shipping address")}
		}
		return nil, err
	}
	o.DriverID = &driver.ID

	if err := s.store.CreateTx(ctx, tx, o); err != nil {
		return nil, err
	}
	for _, it := range cmd.Items {
		if err := s.store.IncrementNumSoldTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":    o.ID,
		"driver_id":   driver.ID,
		"shops":       len(o.Groups),
		"final_price": o.FinalPrice,
	}).Info("order created")
	return o, nil
}

// assemble groups the validated items by shop and computes the price
// breakdown.
func (s *Service) assemble(cmd CreateCommand, products map[uuid.UUID]*catalog.Product, shops map[uuid.UUID]*catalog.Shop, shopOrder []uuid.UUID, now time.Time) *Order {
	userID := cmd.UserID
	o := &Order{
		ID:        uuid.New(),
		UserID:    &userID,
		Status:    StatusConfirmed,
		OrderedAt: now,
		Address:   cmd.Address,
	}

	groupIndex := make(map[uuid.UUID]int, len(shopOrder))
	var sum totals
	for _, shopID := range shopOrder {
		shop := shops[shopID]
		sid := shop.ID
		o.Groups = append(o.Groups, ItemsGroup{
			ID:          uuid.New(),
			ShopID:      &sid,
			ShopName:    shop.Name,
			Currency:    shop.Currency,
			DeliveryFee: shop.DeliveryFee,
		})
		groupIndex[shopID] = len(o.Groups) - 1
		sum.DeliveryFee += shop.DeliveryFee
	}

	for _, req := range cmd.Items {
		p := products[req.ProductID]
		shop := shops[p.ShopID]
		price, vat := priceItem(p, shop, req)

		pid := p.ID
		item := Item{
			ID:             uuid.New(),
			ProductID:      &pid,
			ProductTitle:   p.Title,
			Quantity:       req.Quantity,
			Price:          price,
			VAT:            vat,
			SpecialRequest: req.SpecialRequest,
		}
		for _, id := range req.AddOnIDs {
			a := p.AddOnByID(id)
			item.AddOns = append(item.AddOns, ItemAddOn{AddOnID: a.ID, Title: a.Title, AddedPrice: a.AddedPrice})
		}
		for _, c := range req.Choices {
			g := p.Group(c.OptionGroupID)
			opt := g.OptionByID(c.OptionID)
			item.Choices = append(item.Choices, Choice{
				OptionGroupID: g.ID,
				GroupTitle:    g.Title,
				OptionID:      opt.ID,
				OptionTitle:   opt.Title,
			})
		}

		gi := groupIndex[p.ShopID]
		o.Groups[gi].Items = append(o.Groups[gi].Items, item)
		sum.Subtotal += price
		sum.VAT += vat
	}

	o.Subtotal = sum.Subtotal
	o.VAT = sum.VAT
	o.DeliveryFee = sum.DeliveryFee
	o.FinalPrice = sum.Final()
	return o
}

type TransitionCommand struct {
	OrderID   uuid.UUID
	DriverID  uuid.UUID
	NewStatus Status
}

// Transition advances the order's status. Only the assigned driver may move
// it, only forward, and reaching delivered releases the driver in the same
// transaction as the status write.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, driverID, err := s.store.GetForUpdateTx(ctx, tx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if driverID == nil || *driverID != cmd.DriverID {
		return nil, ErrNotOrderDriver
	}
	if err := CanTransition(current, cmd.NewStatus); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateStatusTx(ctx, tx, cmd.OrderID, current, cmd.NewStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The row lock makes a lost CAS unreachable; report it as a revert
		// rather than crashing into a generic failure.
		return nil, ErrStatusCannotRevert
	}

	if cmd.NewStatus == StatusDelivered {
		if err := s.drivers.Release(ctx, tx, cmd.DriverID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": cmd.OrderID,
		"from":     current,
		"to":       cmd.NewStatus,
	}).Info("order status changed")
	return s.store.Get(ctx, cmd.OrderID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.store.ListForUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) ListForDriver(ctx context.Context, driverID uuid.UUID) ([]Order, error) {
	return s.store.ListForDriver(ctx, driverID)
}

func (s *Service) ListForShopOwner(ctx context.Context, ownerID uuid.UUID) ([]Order, error) {
	return s.store.ListForShopOwner(ctx, ownerID)
}

// IsShopParticipant reports whether the account owns a shop with items in
// the order; used by the read-authorization layer.
func (s *Service) IsShopParticipant(ctx context.Context, orderID, ownerID uuid.UUID) (bool, error) {
	return s.store.IsShopParticipant(ctx, orderID, ownerID)
}
