package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor picks the driver from the DSN: "sqlite:" / "file:" prefixes or a .db/.sqlite path
// select SQLite, anything else is handed to pgx.
func DialectFor(dsn string) (Dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "sqlite:"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite:")
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return SQLite, dsn
	default:
		return Postgres, dsn
	}
}

func OpenDB(dsn string) (*sql.DB, Dialect, error) {
	dialect, source := DialectFor(strings.TrimSpace(dsn))
	driver := "pgx"
	if dialect == SQLite {
		driver = "sqlite"
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, dialect, fmt.Errorf("sql open: %w", err)
	}
	if dialect == SQLite {
		// One writer keeps lease claims serialised without busy errors.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, dialect, fmt.Errorf("db ping: %w", err)
	}
	return db, dialect, nil
}

// Store backs ports.LeaseStore and ports.RunJournal with one database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if s.dialect == Postgres {
		// Serialize bootstrap DDL across api/worker startups.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
			return fmt.Errorf("acquire schema lock: %w", err)
		}
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS file_leases (
	lease_key TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	expires_at BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS file_attempts (
	run_id TEXT NOT NULL,
	file_id TEXT NOT NULL,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL,
	recorded_at BIGINT NOT NULL,
	PRIMARY KEY (run_id, file_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_file_attempts_url ON file_attempts(url)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema ddl: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
