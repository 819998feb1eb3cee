package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Options selects the backing database for the store. With an empty Driver
// (or "sqlite") the store uses a SQLite file under DataDir, or an in-memory
// database when DataDir is also empty. "postgres" and "mysql" connect to the
// given DSN for multi-user deployments.
type Options struct {
	Driver  string
	DSN     string
	DataDir string
}

// Store persists the office's state: users, API keys, the usage audit trail,
// and the CRM records (contacts, demands, events, leads, survey responses).
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens the database selected by opts and runs migrations.
func NewStore(opts Options) (*Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch driver {
	case "sqlite":
		dsn := opts.DSN
		if dsn == "" {
			if opts.DataDir == "" {
				dsn = ":memory:?_journal_mode=WAL"
			} else {
				if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
					return nil, fmt.Errorf("create data dir: %w", err)
				}
				dsn = filepath.Join(opts.DataDir, "mandato.db") + "?_journal_mode=WAL&_busy_timeout=5000"
			}
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err == nil {
			db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
			if _, e := db.Exec("PRAGMA foreign_keys = ON"); e != nil {
				return nil, fmt.Errorf("enable foreign keys: %w", e)
			}
		}
	case "postgres":
		db, err = sqlx.Connect("pgx", opts.DSN)
	case "mysql":
		db, err = sqlx.Connect("mysql", opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind converts "?" placeholders to the driver's bindvar style.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// insertGetID runs a named INSERT and returns the new row's id. Postgres has
// no LastInsertId, so the query is extended with RETURNING id there.
func (s *Store) insertGetID(ctx context.Context, query string, arg interface{}) (int64, error) {
	if s.driver == "postgres" {
		q, args, err := s.db.BindNamed(query+" RETURNING id", arg)
		if err != nil {
			return 0, fmt.Errorf("bind insert: %w", err)
		}
		var id int64
		if err := s.db.GetContext(ctx, &id, q, args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// HashSecret returns the hex-encoded SHA-256 hash of a raw secret (API key
// plaintext). Keys are always looked up by hash, never by value.
func HashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
