// README: Schema migration runner backed by golang-migrate and the embedded SQL files.
package infra

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"souq/migrations"
)

// Migrate brings the database schema up to date. The DSN must use the
// pgx5:// scheme understood by golang-migrate's pgx driver; a plain
// postgres:// DSN is rewritten.
func Migrate(dsn string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgxDSN(dsn))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func pgxDSN(dsn string) string {
	const plain = "postgres://"
	if len(dsn) > len(plain) && dsn[:len(plain)] == plain {
		return "pgx5://" + dsn[len(plain):]
	}
	return dsn
}
