package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	httpLayer "solar-loan/http"
	"solar-loan/repository"
	"solar-loan/service"
)

// newLoanService picks the cache backend from config. The returned func
// releases whatever the backend holds open.
func newLoanService(ctx context.Context) (*service.LoanService, func(), error) {
	loanRepo := repository.NewLoanRepositoryMemory(cfg.History.Size)

	var (
		cache   repository.CacheRepository
		cleanup = func() {}
	)
	switch cfg.Cache.Backend {
	case "redis":
		redisCache := repository.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			_ = redisCache.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		cache = redisCache
		cleanup = func() {
			if err := redisCache.Close(); err != nil {
				slog.Warn("error closing redis", "error", err)
			}
		}
	default:
		cache = repository.NewMemoryCache()
	}

	return service.NewLoanService(loanRepo, cache, cfg.Defaults()), cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	loanService, cleanup, err := newLoanService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	router := httpLayer.NewRouter(
		httpLayer.NewLoanHandler(loanService),
		rateLimiter,
		cfg.CORS.AllowedOrigins,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API listening", "addr", cfg.Server.Addr, "cache", cfg.Cache.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}
