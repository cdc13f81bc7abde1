// Package app wires configuration into the logger, research service and
// result store shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/octobees/contact-finder/internal/adapter/registry"
	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/database"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/repository"
	"github.com/octobees/contact-finder/internal/service"
)

// NewLogger builds a production zap logger at the given level ("debug",
// "info", "warn", "error").
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = lvl > zapcore.DebugLevel
	return zcfg.Build()
}

// Research holds the research service with the registry it was built from.
type Research struct {
	Service  *service.ResearchService
	Registry *registry.Registry
}

// NewResearch builds every adapter and the research service from cfg.
func NewResearch(cfg *config.Config, logger *zap.Logger) *Research {
	reg := registry.Build(cfg, logger)
	validator := service.NewContactValidator(
		cfg.Research.DefaultPhoneRegion,
		service.WithMXVerification(cfg.Research.VerifyMX),
	)
	svc := service.NewResearchService(reg.All(), service.NewNormalizer(validator, logger), service.ResearchOptions{
		AdapterTimeout: cfg.Research.AdapterTimeout,
		Retries:        cfg.Research.Retries,
		RetryBaseDelay: cfg.Research.RetryBaseDelay,
		MaxParallel:    cfg.Research.MaxParallel,
	}, logger)
	return &Research{Service: svc, Registry: reg}
}

// ResearchWriteTimeout bounds how long the API may take to answer a research
// request: every method in its own wave of MaxParallel adapters, each wave
// limited by AdapterTimeout, plus time to normalize, store and respond.
func ResearchWriteTimeout(cfg *config.Config) time.Duration {
	parallel := max(cfg.Research.MaxParallel, 1)
	waves := (len(entity.AllMethods) + parallel - 1) / parallel
	return time.Duration(waves)*cfg.Research.AdapterTimeout + 30*time.Second
}

// OpenResults selects the result store for dsn: in memory when empty, SQLite
// for "sqlite://" paths and PostgreSQL otherwise. The returned closer
// releases the underlying connections.
func OpenResults(ctx context.Context, dsn string, logger *zap.Logger) (repository.ResultsRepository, io.Closer, error) {
	switch database.Kind(dsn) {
	case "memory":
		logger.Info("storing research results in memory")
		return repository.NewMemoryResultsRepository(), closerFunc(func() error { return nil }), nil
	case "sqlite":
		db, err := database.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewSQLiteResultsRepository(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("storing research results in sqlite")
		return repo, db, nil
	default:
		pool, err := database.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPGXResultsRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("storing research results in postgres")
		return repo, closerFunc(func() error { pool.Close(); return nil }), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
