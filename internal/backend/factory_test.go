package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/config"
	"wallet/internal/core"
	"wallet/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, storage.DefaultKey, cfg.SnapshotKey)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"file", Config{Type: FileBackend, SnapshotPath: "a.json"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"postgres", Config{Type: PostgresBackend, PostgresURL: "postgres://localhost/wallet"}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "file", "sqlite", "postgres"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(nil)
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, SnapshotPath: filepath.Join(dir, "wallet.json")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "wallet.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = res.Cleanup() })

			s := core.NewAppState(time.Now())
			require.NoError(t, res.Store.Save(ctx, s))
			got, err := res.Store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, s.CurrentWeek.ID, got.CurrentWeek.ID)
		})
	}

	_, err := f.CreateBackend(ctx, Config{Type: "sheets"})
	assert.Error(t, err)
}
