// Package storage persists the application snapshot.
//
// A Store saves and loads one serialized core.AppState. Implementations keep
// the encoded bytes in memory, in a JSON file, in SQLite or in Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet/internal/core"
)

// DefaultKey names the snapshot row in the SQL stores.
const DefaultKey = "weekly_wallet_v2"

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = fmt.Errorf("snapshot %w", core.ErrNotFound)

// Store persists the snapshot.
type Store interface {
	Load(ctx context.Context) (core.AppState, error)
	Save(ctx context.Context, s core.AppState) error
	Close() error
}

// LoadOrDefault loads the snapshot from st. When nothing was saved it returns
// the first-run state and no error. When loading fails it also returns the
// first-run state, together with an error wrapping core.ErrPersistence that
// the caller should report.
func LoadOrDefault(ctx context.Context, st Store, now time.Time) (core.AppState, error) {
	s, err := st.Load(ctx)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, ErrNoSnapshot):
		return core.NewAppState(now), nil
	case errors.Is(err, core.ErrPersistence):
		return core.NewAppState(now), err
	default:
		return core.NewAppState(now), fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}
}

func saveErr(err error) error {
	return fmt.Errorf("%w: save snapshot: %v", core.ErrPersistence, err)
}

func loadErr(err error) error {
	return fmt.Errorf("%w: load snapshot: %v", core.ErrPersistence, err)
}
