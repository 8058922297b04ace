package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"wallet/internal/core"
)

// FileStore keeps the snapshot in a JSON file. Saves write a temporary file
// in the same directory and rename it over the old one.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Load(ctx context.Context) (core.AppState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.AppState{}, ErrNoSnapshot
	}
	if err != nil {
		return core.AppState{}, loadErr(err)
	}
	return DecodeSnapshot(b)
}

func (f *FileStore) Save(ctx context.Context, s core.AppState) error {
	b, err := EncodeSnapshot(s)
	if err != nil {
		return saveErr(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*.json")
	if err != nil {
		return saveErr(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return saveErr(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return saveErr(err)
	}
	if err := tmp.Close(); err != nil {
		return saveErr(err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return saveErr(err)
	}
	slog.DebugContext(ctx, "Snapshot written", "path", f.path, "bytes", len(b))
	return nil
}

func (f *FileStore) Close() error { return nil }
