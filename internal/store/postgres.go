package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyfe05/matchfeed/internal/feed"
)

const (
	snapshotSchema = `
		CREATE TABLE IF NOT EXISTS feed_snapshots (
			id          smallint PRIMARY KEY,
			updated_at  bigint NOT NULL,
			matches     jsonb NOT NULL
		);`

	snapshotUpsert = `
		INSERT INTO feed_snapshots (id, updated_at, matches)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = EXCLUDED.updated_at, matches = EXCLUDED.matches;`

	snapshotSelect = `SELECT updated_at, matches FROM feed_snapshots WHERE id = 1;`
)

type snapshotPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresProvider keeps the latest snapshot in a single-row table.
type PostgresProvider struct {
	pool snapshotPool
}

// NewPostgresProvider connects a pool and ensures the snapshot table
// exists.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	p := &PostgresProvider{pool: pool}
	if _, err := p.pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshot table: %w", err)
	}
	return p, nil
}

// NewPostgresProviderWithPool constructs a provider from an existing
// pool (primarily for testing).
func NewPostgresProviderWithPool(pool snapshotPool) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresProvider{pool: pool}, nil
}

// Save upserts the single snapshot row.
func (p *PostgresProvider) Save(ctx context.Context, snap feed.Snapshot) error {
	matches, err := json.Marshal(snap.Records)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := p.pool.Exec(ctx, snapshotUpsert, snap.LastUpdated.Unix(), matches); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row, mapping an empty table to ErrNotFound.
func (p *PostgresProvider) Load(ctx context.Context) (feed.Snapshot, error) {
	var (
		updatedAt int64
		matches   []byte
	)
	err := p.pool.QueryRow(ctx, snapshotSelect).Scan(&updatedAt, &matches)
	if errors.Is(err, pgx.ErrNoRows) {
		return feed.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return feed.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var records []feed.MatchRecord
	if err := json.Unmarshal(matches, &records); err != nil {
		return feed.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return feed.Snapshot{
		Records:     records,
		LastUpdated: timeFromEpoch(updatedAt),
	}, nil
}

// Close closes the underlying connection pool.
func (p *PostgresProvider) Close() error {
	p.pool.Close()
	return nil
}
