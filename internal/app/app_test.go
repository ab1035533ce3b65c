package app

import (
	"alcyxob/exercise-catalog/internal/config"
	"alcyxob/exercise-catalog/internal/domain"
	"alcyxob/exercise-catalog/internal/service"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Store.Driver = config.StoreDriverFile
	cfg.Store.Path = filepath.Join(t.TempDir(), "custom.json")
	cfg.Catalog.PageSize = 20
	return cfg
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(config.LogConfig{Level: "nonsense"}, &buf).Debug("dropped")
	assert.Empty(t, buf.String())
	assert.True(t, NewLogger(config.LogConfig{Level: "debug"}, &buf).Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_EmbeddedCatalogAndFileStore(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 50, a.Catalog.Snapshot().Len())

	created, err := a.ExerciseService.CreateCustomExercise(ctx, service.CustomExerciseInput{Name: "Wall Sit", PrimaryMuscles: []string{"quadriceps"}})
	require.NoError(t, err)
	got, ok := a.CatalogService.LookupByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, []domain.Subregion{"Quads"}, got.SubregionTags)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exercises/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_FileSources(t *testing.T) {
	dir := t.TempDir()
	bundled := filepath.Join(dir, "bundled.json")
	require.NoError(t, os.WriteFile(bundled, []byte(`[
		{"id": "wall-ball", "name": "Wall Ball", "primaryMuscles": ["quadriceps"], "equipment": "medicine ball", "force": "push"}
	]`), 0o644))
	media := filepath.Join(dir, "media.json")
	require.NoError(t, os.WriteFile(media, []byte(`{"wall-ball": {"youtube": "https://youtu.be/abc123XYZ00"}}`), 0o644))

	cfg := testConfig(t)
	cfg.Catalog.BundledSource = bundled
	cfg.Catalog.MediaPath = media

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	ex, ok := a.CatalogService.LookupByID("wall-ball")
	require.True(t, ok)
	require.NotNil(t, ex.Media)
	assert.Equal(t, "abc123XYZ00", ex.Media.YouTubeID)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.TaxonomyPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Store.Driver = "sqlite"
	_, err = New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown store driver")

	cfg = testConfig(t)
	cfg.Catalog.BundledSource = filepath.Join(t.TempDir(), "missing.json")
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestStartWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	cfg.Catalog.Watch = true
	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, a.StartWatcher(ctx))
	assert.Len(t, a.closers, 1)
	require.NoError(t, a.Close())
}
