// README: DB-backed registration, login and address tests.
package account

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"souq/internal/infra"
	"souq/internal/types"
)

func setupTestService(t *testing.T) (*Service, *pgxpool.Pool) {
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

	return NewService(NewStore(db), NewTokenIssuer("test-secret")), db
}

func uniqueEmail() string {
	return fmt.Sprintf("u-%s@test.local", uuid.NewString()[:8])
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	email := uniqueEmail()

	a, err := svc.Register(ctx, RegisterCommand{
		Name: "Sara", Email: email, Password: "correct-horse", Role: RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.PasswordHash == "correct-horse" {
		t.Fatal("password stored in the clear")
	}

	got, token, err := svc.Login(ctx, email, "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != a.ID || token == "" {
		t.Fatalf("login returned %v / %q", got.ID, token)
	}

	if _, _, err := svc.Login(ctx, email, "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("wrong password: %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, uniqueEmail(), "whatever"); err != ErrInvalidCredentials {
		t.Fatalf("unknown email: %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	cases := []RegisterCommand{
		{Name: "", Email: uniqueEmail(), Password: "long-enough", Role: RoleCustomer},
		{Name: "x", Email: "", Password: "long-enough", Role: RoleCustomer},
		{Name: "x", Email: uniqueEmail(), Password: "short", Role: RoleCustomer},
		{Name: "x", Email: uniqueEmail(), Password: "long-enough", Role: Role("root")},
		{Name: "x", Email: uniqueEmail(), Password: "long-enough", Role: RoleAdmin},
	}
	for i, cmd := range cases {
		if _, err := svc.Register(ctx, cmd); err != ErrBadRequest {
			t.Errorf("case %d: %v, want ErrBadRequest", i, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	email := uniqueEmail()

	cmd := RegisterCommand{Name: "a", Email: email, Password: "long-enough", Role: RoleCustomer}
	if _, err := svc.Register(ctx, cmd); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, cmd); err != ErrEmailTaken {
		t.Fatalf("second register: %v, want ErrEmailTaken", err)
	}
}

func TestDriverRegistrationCreatesDriverRow(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterCommand{
		Name: "Karim", Email: uniqueEmail(), Password: "long-enough", Role: RoleDriver,
	})
	if err != nil {
		t.Fatalf("register driver: %v", err)
	}

	var active, available, busy bool
	err = db.QueryRow(ctx, "SELECT is_active, is_available, is_busy FROM drivers WHERE id = $1", a.ID).
		Scan(&active, &available, &busy)
	if err != nil {
		t.Fatalf("driver row missing: %v", err)
	}
	// drivers start out of rotation until vetted and online
	if active || available || busy {
		t.Errorf("fresh driver flags = %v/%v/%v, want all false", active, available, busy)
	}
}

func TestAddressLifecycle(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, RegisterCommand{
		Name: "Mona", Email: uniqueEmail(), Password: "long-enough", Role: RoleCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	addr, err := svc.AddAddress(ctx, AddressCommand{
		AccountID: a.ID, Title: "Home", Area: "Zamalek", Type: "apartment",
		Street: "26th July", Building: "12", Floor: 3, ApartmentNo: 7,
		Location: types.Point{Lat: 30.06, Lng: 31.22},
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}

	list, err := svc.ListAddresses(ctx, a.ID)
	if err != nil || len(list) != 1 || list[0].ID != addr.ID {
		t.Fatalf("list = %v, %v", list, err)
	}

	updated, err := svc.UpdateAddress(ctx, addr.ID, AddressCommand{
		AccountID: a.ID, Title: "Work", Area: "Downtown", Type: "office",
		Street: "Talaat Harb", Building: "3", Floor: 5, ApartmentNo: 12,
		Location: types.Point{Lat: 30.05, Lng: 31.24},
	})
	if err != nil {
		t.Fatalf("update address: %v", err)
	}
	if got, err := svc.GetAddress(ctx, a.ID, addr.ID); err != nil ||
		got.Title != "Work" || got.Area != "Downtown" || got.Location != updated.Location {
		t.Fatalf("address after update = %+v, %v", got, err)
	}
	if _, err := svc.UpdateAddress(ctx, addr.ID, AddressCommand{
		AccountID: a.ID, Area: "Downtown", Location: types.Point{Lat: 30.05, Lng: 31.24},
	}); err != ErrBadRequest {
		t.Fatalf("untitled update: %v, want ErrBadRequest", err)
	}

	// addresses are scoped to their owner
	if _, err := svc.GetAddress(ctx, uuid.New(), addr.ID); err != ErrNotFound {
		t.Fatalf("foreign get: %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateAddress(ctx, addr.ID, AddressCommand{
		AccountID: uuid.New(), Title: "Hijack", Area: "Downtown",
		Location: types.Point{Lat: 30.05, Lng: 31.24},
	}); err != ErrNotFound {
		t.Fatalf("foreign update: %v, want ErrNotFound", err)
	}
	if err := svc.DeleteAddress(ctx, uuid.New(), addr.ID); err != ErrNotFound {
		t.Fatalf("foreign delete: %v, want ErrNotFound", err)
	}
	if err := svc.DeleteAddress(ctx, a.ID, addr.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetAddress(ctx, a.ID, addr.ID); err != ErrNotFound {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
}
