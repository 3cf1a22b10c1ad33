package backend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NamePostgres is the stats tag of the Postgres backend.
const NamePostgres = "postgres"

const postgresTable = "playoff_cache_entries"

// Postgres mirrors cache writes into a table. Rows carry their expiry and
// are pruned on every health check, which is how this backend handles its
// own expiration.
type Postgres struct {
	pool        *pgxpool.Pool
	prefix      string
	schemaReady atomic.Bool
}

// NewPostgres creates a pool for dsn. pgxpool connects lazily, so this does
// not touch the network; the schema is created on the first Ping.
func NewPostgres(ctx context.Context, dsn, keyPrefix string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return &Postgres{pool: pool, prefix: keyPrefix}, nil
}

func (p *Postgres) Name() string { return NamePostgres }

// Ping checks the connection, creates the table once, and prunes expired rows.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return err
	}
	if !p.schemaReady.Load() {
		if err := p.ensureSchema(ctx); err != nil {
			return err
		}
		p.schemaReady.Store(true)
	}
	_, err := p.pool.Exec(ctx, `DELETE FROM `+postgresTable+` WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("prune expired rows: %w", err)
	}
	return nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + postgresTable + ` (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + postgresTable + `_expires ON ` + postgresTable + ` (expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO `+postgresTable+` (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		p.prefix+key, value, time.Now().Add(ttl),
	)
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM `+postgresTable+` WHERE key = $1`, p.prefix+key)
	return err
}

func (p *Postgres) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM `+postgresTable+` WHERE starts_with(key, $1)`, p.prefix+prefix)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
