package flags

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// DefaultSQLiteDSN is used by the sqlite backend when no DSN is configured.
const DefaultSQLiteDSN = "file:gscore-flags.db"

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// MigrateResult reports the schema version before and after a migration.
type MigrateResult struct {
	From    uint
	To      uint
	Changed bool
}

// Migrate moves the flag schema for dialect.
//   - target < 0 migrates to the latest version.
//   - target == 0 rolls every migration back.
//   - target > 0 migrates to that version.
func Migrate(db *sql.DB, dialect Dialect, target int) (MigrateResult, error) {
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DialectMySQL:
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	default:
		return MigrateResult{}, fmt.Errorf("%w: %q", ErrUnknownBackend, dialect)
	}
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create %s migrate driver: %w", dialect, err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return MigrateResult{}, fmt.Errorf("access migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "gscore", driver)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("create migrate instance: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return MigrateResult{From: from}, fmt.Errorf("flag schema is dirty at version %d", from)
	}

	switch {
	case target < 0:
		err = m.Up()
	case target == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(target))
	}
	res := MigrateResult{From: from}
	if errors.Is(err, migrate.ErrNoChange) {
		res.To = from
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("migrate flag schema to %d: %w", target, err)
	}
	to, _, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return res, fmt.Errorf("read migration version: %w", verr)
	}
	res.To = to
	res.Changed = true
	return res, nil
}

// MigrateDSN opens dsn, moves its flag schema to target and closes it.
func MigrateDSN(ctx context.Context, dialect Dialect, dsn string, target int) (MigrateResult, error) {
	if dsn == "" && dialect == DialectSQLite {
		dsn = DefaultSQLiteDSN
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("open %s: %w", dialect, err)
	}
	defer func() { _ = db.Close() }()
	if err := db.PingContext(ctx); err != nil {
		return MigrateResult{}, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return Migrate(db, dialect, target)
}
