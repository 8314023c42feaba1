// Package bootstrap assembles the runtime dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"famefeed/internal/cache"
	"famefeed/internal/catalog"
	"famefeed/internal/classifier"
	"famefeed/internal/config"
	"famefeed/internal/database"
	"famefeed/internal/featureflags"
	"famefeed/internal/notifications"
	"famefeed/internal/observability"
	"famefeed/internal/repository"
	"famefeed/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog upserts the reference catalog before services start.
	SeedCatalog bool
	// SkipRedis leaves the cache on its in-process fallback.
	SkipRedis bool
}

// Runtime holds everything a process needs to serve requests.
type Runtime struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Store    *repository.Store
	Catalog  *catalog.Catalog
	Flags    *featureflags.Manager
	Services *service.Services
}

// InitRuntime connects to the database and Redis, loads the catalog and
// wires the services.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional: the cache falls back to an in-process LRU.
	if !opts.SkipRedis {
		cache.InitRedis(cfg.RedisURL)
	}

	return NewRuntime(ctx, cfg, db, cache.GetClient(), opts)
}

// NewRuntime wires the services over already-initialized connections. Tests
// use it with SQLite and miniredis.
func NewRuntime(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts Options) (*Runtime, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if opts.SeedCatalog {
		if err := catalog.Seed(db, cat); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}
	for _, name := range []string{cfg.ConfuserLevel, cfg.SuperProLevel} {
		if !cat.HasLevel(name) {
			observability.ConfigurationErrors.WithLabelValues(name).Inc()
			slog.Error("configured fame level missing from catalog", slog.String("level", name))
		}
	}

	store := repository.NewStore(db)
	cls, err := classifier.NewKeywordClassifier(ctx, cat, store.Catalog)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	flags := featureflags.NewManager(cfg.FeatureFlags)

	services := service.New(store, cls, flags, ServiceConfig(cfg))
	if rdb != nil {
		services.Ledger.SetNotifier(notifications.NewNotifier(rdb))
	}

	return &Runtime{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Store:    store,
		Catalog:  cat,
		Flags:    flags,
		Services: services,
	}, nil
}

// ServiceConfig maps application config onto service tunables.
func ServiceConfig(cfg *config.Config) service.Config {
	sc := service.DefaultConfig()
	sc.Ledger = service.LedgerConfig{ConfuserLevel: cfg.ConfuserLevel, SuperProLevel: cfg.SuperProLevel}
	sc.SimilarityTolerance = cfg.SimilarityTolerance
	if cfg.ReportCacheTTLSeconds > 0 {
		sc.ReportTTL = time.Duration(cfg.ReportCacheTTLSeconds) * time.Second
	}
	return sc
}

// InitTracing installs the tracer provider described by cfg.
func InitTracing(cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	ratio := 1.0
	if cfg.IsProduction() {
		ratio = 0.1
	}
	return observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   ratio,
	})
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() {
	if sqlDB, err := r.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("error closing database", slog.Any("error", err))
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			slog.Error("error closing redis", slog.Any("error", err))
		}
	}
}
