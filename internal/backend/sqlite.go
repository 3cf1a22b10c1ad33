package backend

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// NameSQLite is the stats tag of the SQLite backend.
const NameSQLite = "sqlite"

const sqliteTable = "playoff_cache_entries"

// SQLite mirrors cache writes into a local database file, for single-node
// deployments that want the mirror to survive restarts without a server.
// Expiry is stored as unix milliseconds and pruned on every health check.
type SQLite struct {
	db          *sql.DB
	prefix      string
	schemaReady atomic.Bool
}

// NewSQLite opens path. The driver connects lazily; the schema is created
// on the first Ping.
func NewSQLite(path, keyPrefix string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	return &SQLite{db: db, prefix: keyPrefix}, nil
}

// sqlitePath extracts the database path from sqlite:///abs/path,
// sqlite://relative.db or sqlite::memory:.
func sqlitePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

func (s *SQLite) Name() string { return NameSQLite }

// Ping checks the connection, creates the table once, and prunes expired rows.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return err
	}
	if !s.schemaReady.Load() {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		s.schemaReady.Store(true)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+sqliteTable+` WHERE expires_at <= ?`, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("prune expired rows: %w", err)
	}
	return nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + sqliteTable + ` (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + sqliteTable + `_expires ON ` + sqliteTable + ` (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+sqliteTable+` (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.prefix+key, value, time.Now().Add(ttl).UnixMilli(),
	)
	return err
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+sqliteTable+` WHERE key = ?`, s.prefix+key)
	return err
}

func (s *SQLite) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	full := s.prefix + prefix
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+sqliteTable+` WHERE substr(key, 1, length(?)) = ?`, full, full)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
