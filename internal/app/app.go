// Package app implements the application layer for pipecache.
package app

//go:generate sh -c "GOFLAGS='-tags=wireinject' go run github.com/mazrean/kessoku/cmd/kessoku wire.go"

import (
	"context"

	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/ethanis/pipecache/internal/engine/cache"
	"go.trai.ch/zerr"
)

// App ties configuration loading, backend selection, and the cache workflows
// together for the CLI layer.
type App struct {
	loader ports.ConfigLoader
	dialer ports.BackendDialer
	orch   *cache.Orchestrator
	log    ports.Logger
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, dialer ports.BackendDialer, orch *cache.Orchestrator, log ports.Logger) *App {
	return &App{
		loader: loader,
		dialer: dialer,
		orch:   orch,
		log:    log,
	}
}

// Save uploads the configured cache paths. A non-empty endpoint overrides
// the configured one.
func (a *App) Save(ctx context.Context, configPath, endpoint string) error {
	cfg, backend, err := a.prepare(ctx, configPath, endpoint)
	if err != nil {
		return err
	}

	return a.orch.Save(ctx, cache.SaveRequest{
		Backend: backend,
		Workdir: cfg.WorkingDirectory,
		Cache:   cfg.Cache,
	})
}

// Restore materializes the best matching cache entry and reports the hit
// classification. A miss is not an error.
func (a *App) Restore(ctx context.Context, configPath, endpoint string, dryRun bool) (domain.Hit, error) {
	cfg, backend, err := a.prepare(ctx, configPath, endpoint)
	if err != nil {
		return domain.HitMiss, err
	}

	return a.orch.Restore(ctx, cache.RestoreRequest{
		Backend: backend,
		Workdir: cfg.WorkingDirectory,
		Cache:   cfg.Cache,
		DryRun:  dryRun,
	})
}

func (a *App) prepare(ctx context.Context, configPath, endpoint string) (*domain.Config, ports.Backend, error) {
	cfg, err := a.loader.Load(configPath)
	if err != nil {
		return nil, ports.Backend{}, zerr.Wrap(err, "load configuration")
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	backend, err := a.dialer.Dial(ctx, cfg.Endpoint)
	if err != nil {
		return nil, ports.Backend{}, err
	}
	return cfg, backend, nil
}
