package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Catalog.PageSize)
	assert.Equal(t, 275*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, "custom_exercises.json", cfg.Store.Path)
	assert.Empty(t, cfg.Catalog.BundledSource)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
catalog:
  page_size: 20
  search_debounce: 100ms
store:
  driver: mongo
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("SERVER_ADDRESS", ":9999")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Catalog.PageSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, ":9999", cfg.Server.Address)
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("catalog: [\n"), 0o644))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
