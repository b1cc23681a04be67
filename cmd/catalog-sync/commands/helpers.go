package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/albertohilal/catalog-sync/cmd/catalog-sync/ui"
	"github.com/albertohilal/catalog-sync/internal/catalog"
	"github.com/albertohilal/catalog-sync/internal/config"
	"github.com/albertohilal/catalog-sync/internal/observability"
	"github.com/albertohilal/catalog-sync/internal/runlock"
	"github.com/albertohilal/catalog-sync/internal/storage"
)

// setup loads configuration, initializes the UI and builds the logger. Every
// command starts here.
func setup() (*config.Config, *observability.Logger, error) {
	ui.Init(noColor, verbose)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}

	log := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "catalog-sync",
	})

	return cfg, log, nil
}

// openDatabase opens the configured store and makes sure the schema exists.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := storage.Bootstrap(ctx, db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return db, nil
}

// newArtifactStore builds the checkpoint store from configured paths.
func newArtifactStore(cfg *config.Config) *catalog.ArtifactStore {
	return catalog.NewArtifactStore(cfg.Paths.RawDir, cfg.Paths.NormalizedDir)
}

// acquireRunLock takes the single-flight lease when locking is configured.
// The returned release function is a no-op otherwise.
func acquireRunLock(ctx context.Context, cfg *config.Config) (func(), error) {
	if cfg.Lock.Addr == "" {
		return func() {}, nil
	}

	lock, err := runlock.New(runlock.Config{
		Addr:     cfg.Lock.Addr,
		Password: cfg.Lock.Password,
		DB:       cfg.Lock.DB,
		Key:      cfg.Lock.Key,
		TTL:      cfg.Lock.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect run lock: %w", err)
	}

	if err := lock.Acquire(ctx); err != nil {
		lock.Close()
		return nil, err
	}

	return func() {
		lock.Release(context.Background())
		lock.Close()
	}, nil
}
