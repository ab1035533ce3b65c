// Package app wires configuration into a running catalog: sources, the
// custom exercise store, services, metrics and the HTTP router.
package app

import (
	"alcyxob/exercise-catalog/internal/api"
	"alcyxob/exercise-catalog/internal/catalog"
	"alcyxob/exercise-catalog/internal/config"
	"alcyxob/exercise-catalog/internal/filter"
	"alcyxob/exercise-catalog/internal/metrics"
	"alcyxob/exercise-catalog/internal/repository"
	"alcyxob/exercise-catalog/internal/repository/file"
	"alcyxob/exercise-catalog/internal/repository/mongo"
	"alcyxob/exercise-catalog/internal/service"
	"alcyxob/exercise-catalog/internal/storage"
	"alcyxob/exercise-catalog/internal/taxonomy"
	"alcyxob/exercise-catalog/internal/watch"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// App holds the wired components. Close releases them.
type App struct {
	Config          config.Config
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	Catalog         *catalog.Catalog
	CatalogService  service.CatalogService
	ExerciseService service.ExerciseService

	store     repository.CustomExerciseRepository
	fileStore *file.Store
	closers   []func() error
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New loads every source, opens the custom store, builds the first
// snapshot and creates the services.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	tax, err := loadTaxonomy(cfg.Catalog.TaxonomyPath)
	if err != nil {
		return nil, err
	}

	var objects storage.ObjectStore
	if storage.IsObjectURL(cfg.Catalog.BundledSource) || storage.IsObjectURL(cfg.Catalog.MediaPath) {
		logger.Info("Initializing object storage for catalog sources...")
		objects, err = storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
	}

	media, err := catalog.LoadMediaSource(ctx, cfg.Catalog.MediaPath, objects)
	if err != nil {
		// Media is decoration; the catalog is usable without it.
		logger.Warn("Media map unavailable", "source", cfg.Catalog.MediaPath, "error", err)
	}
	bundled, err := catalog.LoadBundledSource(ctx, cfg.Catalog.BundledSource, objects, media, logger)
	if err != nil {
		return nil, fmt.Errorf("load bundled corpus: %w", err)
	}

	if err := a.openStore(ctx, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.Catalog = catalog.New(tax, bundled, a.store, logger, a.Metrics)
	if _, err := a.Catalog.Rebuild(ctx); err != nil {
		// Bundled-only snapshot stays live.
		logger.Error("Initial catalog build failed", "error", err)
	}

	a.CatalogService = service.NewCatalogService(a.Catalog, filter.NewFavorites(), service.CatalogOptions{
		PageSize:       cfg.Catalog.PageSize,
		SearchDebounce: cfg.Catalog.SearchDebounce,
	}, logger, a.Metrics)
	a.ExerciseService = service.NewExerciseService(a.store, a.Catalog, logger, a.Metrics)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	switch cfg.Store.Driver {
	case "", config.StoreDriverFile:
		store, err := file.Open(cfg.Store.Path, logger)
		if err != nil {
			return fmt.Errorf("open custom exercise file: %w", err)
		}
		a.store, a.fileStore = store, store
	case config.StoreDriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		db := client.Database(cfg.Database.Name)
		if err := mongo.EnsureCustomExerciseIndexes(ctx, db); err != nil {
			logger.Warn("Index creation failed", "error", err)
		}
		a.store = mongo.NewMongoCustomExerciseRepository(db, logger)
		logger.Info("Database connection established.", "database", cfg.Database.Name)
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}

// StartWatcher begins reloading external edits of the custom exercise
// file. It is a no-op unless catalog.watch is set with the file driver.
func (a *App) StartWatcher(ctx context.Context) error {
	if !a.Config.Catalog.Watch || a.fileStore == nil {
		return nil
	}
	w, err := watch.NewStoreWatcher(a.fileStore.Path(), 0, a.fileStore, a.Catalog, a.Logger)
	if err != nil {
		return fmt.Errorf("create store watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, w.Stop)
	return nil
}

// Router returns a gin engine with every route registered.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(a.Logger))
	api.SetupRoutes(router, a.Config.JWT.Secret, api.Services{
		Catalog:   a.CatalogService,
		Exercises: a.ExerciseService,
		Metrics:   a.Metrics.Handler(),
		Logger:    a.Logger,
	})
	return router
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ShutdownTimeout falls back to five seconds.
func (a *App) ShutdownTimeout() time.Duration {
	if a.Config.Server.ShutdownTimeout > 0 {
		return a.Config.Server.ShutdownTimeout
	}
	return 5 * time.Second
}

func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer f.Close()
	tax, err := taxonomy.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy %s: %w", path, err)
	}
	return tax, nil
}
