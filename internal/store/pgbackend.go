package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgBackend stores digest/bytes pairs in a single Postgres table,
// demonstrating that the Backend interface is a genuine plug-in surface
// rather than one tied to memory or the filesystem.
type PgBackend struct {
	db *sql.DB
}

// NewPgBackend opens a connection pool against dsn and ensures the backing
// table exists.
func NewPgBackend(ctx context.Context, dsn string) (*PgBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	b := &PgBackend{db: db}
	if err := b.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *PgBackend) ensureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS enact_resources (
			digest TEXT PRIMARY KEY,
			data   BYTEA NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("store: ensure postgres schema: %w", err)
	}
	return nil
}

func (b *PgBackend) Put(ctx context.Context, digest string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO enact_resources (digest, data) VALUES ($1, $2)
		ON CONFLICT (digest) DO NOTHING
	`, digest, data)
	if err != nil {
		return fmt.Errorf("store: postgres put: %w", err)
	}
	return nil
}

func (b *PgBackend) Has(ctx context.Context, digest string) (bool, error) {
	var exists bool
	err := b.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM enact_resources WHERE digest = $1)
	`, digest).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: postgres has: %w", err)
	}
	return exists, nil
}

func (b *PgBackend) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `
		SELECT data FROM enact_resources WHERE digest = $1
	`, digest).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: postgres get: %w", err)
	}
	return data, true, nil
}

// Close releases the connection pool.
func (b *PgBackend) Close() error {
	return b.db.Close()
}
