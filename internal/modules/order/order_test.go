// README: DB-backed order pipeline tests (creation, matching, transitions).
package order

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"souq/internal/config"
	"souq/internal/infra"
	"souq/internal/modules/catalog"
	"souq/internal/modules/matching"
	"souq/internal/types"
)

// Everything below (30.05, 31.23) is the test neighborhood; shops, drivers
// and shipping addresses within it are mutually inside the 2.5 km radius.
var (
	testShopPos    = types.Point{Lat: 30.0500, Lng: 31.2300}
	testDriverPos  = types.Point{Lat: 30.0520, Lng: 31.2310}
	testAddressPos = types.Point{Lat: 30.0540, Lng: 31.2330}
	farAwayPos     = types.Point{Lat: 50.0, Lng: 50.0}
)

type testEnv struct {
	db      *pgxpool.Pool
	svc     *Service
	userID  uuid.UUID
	ownerID uuid.UUID
	shopID  uuid.UUID
	product *catalog.Product
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("SOUQ_TEST_DSN")
	if dsn == "" {
		t.Skip("SOUQ_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := infra.Migrate(dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, `TRUNCATE TABLE order_item_choices, order_item_add_ons,
		order_items, order_items_groups, order_addresses, orders, options,
		option_groups, add_ons, products, drivers, user_addresses, shops,
		accounts CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	cfg := config.DeliveryConfig{RadiusKm: 2.5, DriverFreshnessSeconds: 10}
	log := logrus.New()
	log.SetOutput(os.Stderr)

	catStore := catalog.NewStore(db)
	matchSvc := matching.NewService(matching.NewStore(db), cfg)
	svc := NewService(NewStore(db), catStore, matchSvc, nil, cfg, log)

	env := &testEnv{db: db, svc: svc}
	env.seed(t)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()

	e.userID = e.insertAccount(t, "customer")
	e.ownerID = e.insertAccount(t, "shop_owner")
	ownerID := e.ownerID

	e.shopID = uuid.New()
	mustExec(t, e.db, `INSERT INTO shops
		(id, owner_id, name, slug, currency, delivery_fee, vat_percent,
		 opens_at, closes_at, lat, lng, is_active, is_open)
		VALUES ($1, $2, 'Test Deli', $3, 'EGP', 1500, 14, 0, 1439, $4, $5, TRUE, TRUE)`,
		e.shopID, ownerID, "test-deli-"+uuid.NewString()[:8], testShopPos.Lat, testShopPos.Lng)

	p := testProduct()
	p.ShopID = e.shopID
	mustExec(t, e.db, `INSERT INTO products (id, shop_id, title, slug, price, is_available)
		VALUES ($1, $2, $3, $4, $5, TRUE)`,
		p.ID, p.ShopID, p.Title, "pizza-"+uuid.NewString()[:8], p.Price)
	for i, a := range p.AddOns {
		mustExec(t, e.db, `INSERT INTO add_ons (id, product_id, title, added_price, sort)
			VALUES ($1, $2, $3, $4, $5)`, a.ID, p.ID, a.Title, a.AddedPrice, i)
	}
	for i := range p.OptionGroups {
		g := &p.OptionGroups[i]
		var relyGroup, relyOption *uuid.UUID
		if g.RelyOn != nil {
			relyGroup, relyOption = &g.RelyOn.GroupID, &g.RelyOn.OptionID
		}
		mustExec(t, e.db, `INSERT INTO option_groups
			(id, product_id, title, sort, changes_price, rely_on_group_id, rely_on_option_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, p.ID, g.Title, i, g.ChangesPrice, relyGroup, relyOption)
		for j, o := range g.Options {
			mustExec(t, e.db, `INSERT INTO options (id, option_group_id, title, sort, price)
				VALUES ($1, $2, $3, $4, $5)`, o.ID, g.ID, o.Title, j, o.Price)
		}
	}
	e.product = p
}

func (e *testEnv) insertAccount(t *testing.T, role string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	mustExec(t, e.db, `INSERT INTO accounts (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, 'x', $4)`,
		id, role+" "+id.String()[:8], fmt.Sprintf("%s@test.local", id), role)
	return id
}

// insertDriver creates an eligible driver parked near the test neighborhood.
func (e *testEnv) insertDriver(t *testing.T, pos types.Point) uuid.UUID {
	t.Helper()
	id := e.insertAccount(t, "driver")
	mustExec(t, e.db, `INSERT INTO drivers
		(id, is_active, is_available, is_busy, last_online_at, lat, lng)
		VALUES ($1, TRUE, TRUE, FALSE, now(), $2, $3)`, id, pos.Lat, pos.Lng)
	return id
}

func mustExec(t *testing.T, db *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	if _, err := db.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec %q: %v", sql[:40], err)
	}
}

func validCommand(e *testEnv, quantity int) CreateCommand {
	return CreateCommand{
		UserID: e.userID,
		Items: []ItemRequest{{
			ProductID: e.product.ID,
			Quantity:  quantity,
			AddOnIDs:  []uuid.UUID{cheeseAddOn},
			Choices: []ChoiceRequest{
				{OptionGroupID: sizeGroupID, OptionID: largeOptID},
				{OptionGroupID: crustGroupID, OptionID: thinOptID},
				{OptionGroupID: sauceGroupID, OptionID: hotOptID},
			},
		}},
		Address: Address{
			Area: "Test Block", Type: "apartment", Street: "1st", Building: "4",
			Floor: 2, ApartmentNo: 5, Location: testAddressPos,
		},
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	driverID := env.insertDriver(t, testDriverPos)

	o, err := env.svc.Create(ctx, validCommand(env, 2))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if o.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", o.Status)
	}
	if o.DriverID == nil || *o.DriverID != driverID {
		t.Errorf("driver = %v, want %s", o.DriverID, driverID)
	}
	// large (1400) + cheese (150), times 2
	if o.Subtotal != 3100 {
		t.Errorf("subtotal = %d, want 3100", o.Subtotal)
	}
	if o.VAT != 434 {
		t.Errorf("vat = %d, want 434", o.VAT)
	}
	if o.DeliveryFee != 1500 {
		t.Errorf("delivery fee = %d, want 1500", o.DeliveryFee)
	}
	if o.FinalPrice != o.Subtotal+o.VAT+o.DeliveryFee {
		t.Errorf("final price %d does not match breakdown", o.FinalPrice)
	}

	var busy bool
	if err := env.db.QueryRow(ctx, "SELECT is_busy FROM drivers WHERE id = $1", driverID).Scan(&busy); err != nil {
		t.Fatalf("read driver: %v", err)
	}
	if !busy {
		t.Error("assigned driver was not marked busy")
	}

	var numSold int64
	if err := env.db.QueryRow(ctx, "SELECT num_sold FROM products WHERE id = $1", env.product.ID).Scan(&numSold); err != nil {
		t.Fatalf("read product: %v", err)
	}
	if numSold != 2 {
		t.Errorf("num_sold = %d, want 2", numSold)
	}

	// The stored aggregate round-trips with the choice and add-on snapshots.
	got, err := env.svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(got.Groups) != 1 || len(got.Groups[0].Items) != 1 {
		t.Fatalf("unexpected aggregate shape: %+v", got.Groups)
	}
	item := got.Groups[0].Items[0]
	if len(item.AddOns) != 1 || item.AddOns[0].Title != "Extra cheese" {
		t.Errorf("add-on snapshot = %+v", item.AddOns)
	}
	if len(item.Choices) != 3 {
		t.Errorf("choice snapshot has %d entries, want 3", len(item.Choices))
	}
}

func TestCreateOrderValidationFailuresAccumulate(t *testing.T) {
	env := setupTestEnv(t)
	env.insertDriver(t, testDriverPos)

	cmd := validCommand(env, 1)
	cmd.Items[0].Choices = nil // drops all three groups, two of them mandatory
	cmd.Items = append(cmd.Items, ItemRequest{ProductID: uuid.New(), Quantity: 1})

	_, err := env.svc.Create(context.Background(), cmd)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if !hasCode(verrs, CodeMissingRequiredChoice) || !hasCode(verrs, CodeProductUnavailable) {
		t.Fatalf("missing expected codes in %v", verrs)
	}
	for _, e := range verrs {
		if e.Code == CodeProductUnavailable && e.ItemIndex != 1 {
			t.Errorf("unknown-product error carries index %d, want 1", e.ItemIndex)
		}
	}

	// Nothing may persist on a failed request.
	var n int
	if err := env.db.QueryRow(context.Background(), "SELECT count(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if n != 0 {
		t.Errorf("found %d persisted orders after a rejected request", n)
	}
}

func TestCreateOrderNoDriverAvailable(t *testing.T) {
	env := setupTestEnv(t)
	// The only driver is parked a continent away.
	env.insertDriver(t, farAwayPos)

	_, err := env.svc.Create(context.Background(), validCommand(env, 1))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 1 || verrs[0].Code != CodeNoDriverAvailable {
		t.Fatalf("errors = %v, want a single NoDriverAvailable", verrs)
	}

	var n int
	if err := env.db.QueryRow(context.Background(), "SELECT count(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if n != 0 {
		t.Errorf("found %d persisted orders after a failed match", n)
	}
}

func TestCreateOrderClosedShopFailsBeforeMatching(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	mustExec(t, env.db, "UPDATE shops SET is_active = FALSE WHERE id = $1", env.shopID)
	// No driver exists at all; a deactivated shop must surface as
	// ShopUnavailable, never as a failed match.

	_, err := env.svc.Create(ctx, validCommand(env, 1))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if !hasCode(verrs, CodeShopUnavailable) {
		t.Fatalf("errors = %v, want ShopUnavailable", verrs)
	}
	if hasCode(verrs, CodeNoDriverAvailable) {
		t.Fatalf("shop check must short-circuit matching, got %v", verrs)
	}

	var n int
	if err := env.db.QueryRow(ctx, "SELECT count(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if n != 0 {
		t.Errorf("found %d persisted orders after a rejected request", n)
	}
}

func TestCreateOrderStaleDriverSkipped(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staleID := env.insertDriver(t, testDriverPos)
	mustExec(t, env.db, "UPDATE drivers SET last_online_at = now() - interval '1 minute' WHERE id = $1", staleID)

	_, err := env.svc.Create(ctx, validCommand(env, 1))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || !hasCode(verrs, CodeNoDriverAvailable) {
		t.Fatalf("expected NoDriverAvailable for a stale heartbeat, got %v", err)
	}
}

func TestListScopes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	firstDriver := env.insertDriver(t, testDriverPos)
	secondDriver := env.insertDriver(t, testAddressPos)

	first, err := env.svc.Create(ctx, validCommand(env, 1))
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}
	if _, err := env.svc.Create(ctx, validCommand(env, 1)); err != nil {
		t.Fatalf("create second order: %v", err)
	}

	if list, err := env.svc.ListForUser(ctx, env.userID); err != nil || len(list) != 2 {
		t.Errorf("user list = %d orders, %v; want 2", len(list), err)
	}
	if list, err := env.svc.ListForDriver(ctx, *first.DriverID); err != nil || len(list) != 1 {
		t.Errorf("driver list = %d orders, %v; want 1", len(list), err)
	}
	if list, err := env.svc.ListForShopOwner(ctx, env.ownerID); err != nil || len(list) != 2 {
		t.Errorf("owner list = %d orders, %v; want 2", len(list), err)
	}

	// Administrative listing sees every order regardless of participant.
	all, err := env.svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin list = %d orders, want 2", len(all))
	}
	seen := map[uuid.UUID]bool{}
	for _, o := range all {
		if o.DriverID != nil {
			seen[*o.DriverID] = true
		}
	}
	if !seen[firstDriver] || !seen[secondDriver] {
		t.Errorf("admin list missing a driver assignment: %v", seen)
	}
}

func TestTransitionFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	driverID := env.insertDriver(t, testDriverPos)
	otherDriver := env.insertDriver(t, farAwayPos)

	o, err := env.svc.Create(ctx, validCommand(env, 1))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// only the assigned driver may advance the order
	if _, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: otherDriver, NewStatus: StatusPicked}); err != ErrNotOrderDriver {
		t.Fatalf("foreign driver transition: %v, want ErrNotOrderDriver", err)
	}

	if _, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: driverID, NewStatus: StatusPicked}); err != nil {
		t.Fatalf("confirmed -> picked: %v", err)
	}
	if _, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: driverID, NewStatus: StatusConfirmed}); err != ErrStatusCannotRevert {
		t.Fatalf("picked -> confirmed: %v, want ErrStatusCannotRevert", err)
	}
	if _, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: driverID, NewStatus: Status("lost")}); err != ErrInvalidStatus {
		t.Fatalf("picked -> lost: %v, want ErrInvalidStatus", err)
	}

	got, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: driverID, NewStatus: StatusDelivered})
	if err != nil {
		t.Fatalf("picked -> delivered: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Errorf("status = %s, want delivered", got.Status)
	}

	// delivery frees the driver for the next match
	var busy bool
	if err := env.db.QueryRow(ctx, "SELECT is_busy FROM drivers WHERE id = $1", driverID).Scan(&busy); err != nil {
		t.Fatalf("read driver: %v", err)
	}
	if busy {
		t.Error("driver still busy after delivery")
	}

	if _, err := env.svc.Transition(ctx, TransitionCommand{OrderID: o.ID, DriverID: driverID, NewStatus: StatusPicked}); err != ErrStatusCannotRevert {
		t.Fatalf("delivered -> picked: %v, want ErrStatusCannotRevert", err)
	}
}

func TestNearestDriverWins(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	// both in range, one clearly closer to the shipping address
	far := env.insertDriver(t, types.Point{Lat: 30.0600, Lng: 31.2400})
	near := env.insertDriver(t, types.Point{Lat: 30.0541, Lng: 31.2331})

	o, err := env.svc.Create(ctx, validCommand(env, 1))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.DriverID == nil || *o.DriverID != near {
		t.Errorf("assigned %v, want nearest driver %s (far: %s)", o.DriverID, near, far)
	}
}
