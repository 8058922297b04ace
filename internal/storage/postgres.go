package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wallet/internal/core"
)

//go:embed postgres_schema.sql
var postgresSchema string

// PostgresStore keeps the snapshot in one JSONB row of the snapshots table.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresStore connects to url and creates the snapshots table if needed.
func NewPostgresStore(ctx context.Context, url, key string) (*PostgresStore, error) {
	if key == "" {
		key = DefaultKey
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	slog.InfoContext(ctx, "Postgres store ready", "key", key)
	return &PostgresStore{pool: pool, key: key}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (core.AppState, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data::text FROM snapshots WHERE key = $1`, p.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.AppState{}, ErrNoSnapshot
	}
	if err != nil {
		return core.AppState{}, loadErr(err)
	}
	return DecodeSnapshot(data)
}

func (p *PostgresStore) Save(ctx context.Context, s core.AppState) error {
	b, err := EncodeSnapshot(s)
	if err != nil {
		return saveErr(err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		p.key, string(b))
	if err != nil {
		return saveErr(err)
	}
	return nil
}

// Ping checks the database connection.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
