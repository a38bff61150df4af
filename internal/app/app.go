package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/messagebridge/internal/anthropicadapter/openaichat"
	"github.com/florianilch/messagebridge/internal/proxy"
	"github.com/florianilch/messagebridge/internal/tokensource"
)

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	cfg    Config
	proxy  *proxy.Proxy
	health *Health
}

// Option configures an App.
type Option func(*[]proxy.Option)

// WithProxyOptions passes additional options to the proxy, e.g. a custom
// backend transport.
func WithProxyOptions(opts ...proxy.Option) Option {
	return func(p *[]proxy.Option) {
		*p = append(*p, opts...)
	}
}

// New wires the proxy from cfg. The backend API key is read once from the
// configured store.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolver := openaichat.NewModelResolver(cfg.ModelTable(), cfg.Backend.Model)
	adapter, err := openaichat.NewCreateMessageAdapter(cfg.Backend.BaseURL, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	tokenSource, err := tokensource.New(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create token source: %w", err)
	}
	if tokenSource == nil {
		slog.InfoContext(ctx, "no backend API key configured, sending unauthenticated requests",
			"storage", cfg.Auth.Storage)
	}

	proxyOpts := []proxy.Option{proxy.WithMaxRequestBytes(cfg.Server.MaxRequestBytes)}
	for _, opt := range opts {
		opt(&proxyOpts)
	}

	health := NewHealth()
	proxyServer, err := proxy.New(adapter, tokenSource, health, proxyOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	slog.InfoContext(ctx, "backend configured",
		"base_url", adapter.BaseURL(),
		"model", cfg.Backend.Model,
		"aliases", len(resolver.Aliases()),
	)

	return &App{
		cfg:    cfg,
		proxy:  proxyServer,
		health: health,
	}, nil
}

// Health returns the readiness state shared with the health endpoints.
func (a *App) Health() *Health {
	return a.health
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server")
	proxyErrCh, err := a.proxy.Start(gCtx, a.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)

	a.health.MarkReady()
	shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
		a.health.MarkDraining()
		return nil
	})

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services in reverse start order
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
