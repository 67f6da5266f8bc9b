package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/okian/gscore/internal/domain/model"
)

// Dialect names a SQL backend.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DriverName returns the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// ParseDialect validates s.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// SQL stores flags in a relational table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL opens dsn and migrates the flag schema to the latest version.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQL, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// :memory: databases exist per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if _, err := Migrate(db, dialect, -1); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQL(db, dialect), nil
}

// NewSQL wraps an already migrated database.
func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

// bind rewrites ? placeholders to $n for postgres.
func (s *SQL) bind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Append implements Store.
func (s *SQL) Append(ctx context.Context, f model.Flag) error {
	_, err := s.db.ExecContext(ctx,
		s.bind(`INSERT INTO flags (flag_id, identity, wallet, reason, created_at_ms) VALUES (?, ?, ?, ?, ?)`),
		f.ID, f.Identity, f.Wallet, f.Reason, f.CreatedAt.UnixMilli(),
	)
	return err
}

const selectFlag = `SELECT flag_id, identity, wallet, reason, created_at_ms FROM flags`

// Latest implements Store.
func (s *SQL) Latest(ctx context.Context, identity string) (model.Flag, bool, error) {
	row := s.db.QueryRowContext(ctx,
		s.bind(selectFlag+` WHERE identity = ? ORDER BY seq DESC LIMIT 1`),
		model.NormalizeIdentity(identity),
	)
	f, err := scanFlag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Flag{}, false, nil
	}
	if err != nil {
		return model.Flag{}, false, err
	}
	return f, true, nil
}

// List implements Store.
func (s *SQL) List(ctx context.Context, limit int) ([]model.Flag, error) {
	q := selectFlag + ` ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.bind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQL) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlag(r scanner) (model.Flag, error) {
	var (
		f  model.Flag
		ms int64
	)
	if err := r.Scan(&f.ID, &f.Identity, &f.Wallet, &f.Reason, &ms); err != nil {
		return model.Flag{}, err
	}
	f.CreatedAt = time.UnixMilli(ms).UTC()
	return f, nil
}
