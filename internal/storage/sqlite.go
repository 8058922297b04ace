package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"wallet/internal/core"
)

// SQLiteStore keeps the snapshot in one row of the snapshots table.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(dbPath, key string) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultKey
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite store ready", "db_path", dbPath, "key", key)
	return &SQLiteStore{db: db, key: key}, nil
}

func (r *SQLiteStore) Load(ctx context.Context) (core.AppState, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, r.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AppState{}, ErrNoSnapshot
	}
	if err != nil {
		return core.AppState{}, loadErr(err)
	}
	return DecodeSnapshot([]byte(data))
}

func (r *SQLiteStore) Save(ctx context.Context, s core.AppState) error {
	b, err := EncodeSnapshot(s)
	if err != nil {
		return saveErr(err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		r.key, string(b))
	if err != nil {
		return saveErr(err)
	}
	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"key", r.key,
		"bytes", len(b),
		"history_weeks", len(s.History))
	return nil
}

// Ping checks the database connection.
func (r *SQLiteStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
