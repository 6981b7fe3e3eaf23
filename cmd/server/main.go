package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	"coffeeshop/internal/db/mock"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	setLogFormatFunc    = func(format string) error { return applog.SetFormat(os.Stdout, format) }
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	closeDatabase       = db.Close
	newGuardFunc        = buildGuard
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogFormatFunc(cfg.Logging.Format); err != nil {
		applog.Error(ctx, "invalid log format", "error", err, "format", cfg.Logging.Format)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "error", err, "level", cfg.Logging.Level)
		return 1
	}

	applog.Debug(ctx, "configuration loaded",
		"addr", cfg.Server.Addr,
		"databaseDriver", cfg.Database.Driver,
		"useMockDatabase", cfg.Database.UseMock,
		"authDomain", cfg.Auth.Domain,
		"redisEnabled", cfg.Redis.URL != "",
	)

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}
	defer func() {
		if err := closeDatabase(database); err != nil {
			applog.Error(ctx, "failed to close database", "error", err)
		}
	}()

	guard, cleanup, err := newGuardFunc(ctx, cfg)
	if err != nil {
		applog.Error(ctx, "failed to configure token verification", "error", err)
		return 1
	}
	defer cleanup()

	srv, err := newServerFunc(server.Config{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Database:          database,
		Guard:             guard,
	})
	if err != nil {
		applog.Error(ctx, "failed to create server", "error", err)
		return 1
	}

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server stopped unexpectedly", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}

	applog.Info(ctx, "server stopped")
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using seeded in-memory database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

// buildGuard wires the key set source and verifier described by cfg. The
// returned cleanup releases the Redis client when one was opened.
func buildGuard(ctx context.Context, cfg config.Config) (*auth.Guard, func(), error) {
	if err := cfg.Auth.Validate(); err != nil {
		return nil, nil, err
	}

	var opts []auth.CacheOption
	cleanup := func() {}
	if cfg.Redis.URL != "" {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		opts = append(opts, auth.WithSharedCache(auth.NewRedisDocumentCache(client, cfg.Auth.Issuer)))
		cleanup = func() {
			if err := client.Close(); err != nil {
				applog.Error(context.Background(), "failed to close redis client", "error", err)
			}
		}
		applog.Info(ctx, "sharing key set through redis")
	}

	keys := auth.NewCachingKeySource(
		auth.NewHTTPFetcher(cfg.Auth.JWKSURL, cfg.Auth.HTTPTimeout),
		cfg.Auth.JWKSTTL,
		cfg.Auth.MinRefresh,
		opts...,
	)
	verifier := auth.NewVerifier(keys, cfg.Auth.Algorithm, cfg.Auth.Audience, cfg.Auth.Issuer, auth.WithLeeway(cfg.Auth.Leeway))

	applog.Debug(ctx, "token verification configured",
		"jwksURL", cfg.Auth.JWKSURL,
		"audience", cfg.Auth.Audience,
		"issuer", cfg.Auth.Issuer,
		"algorithm", cfg.Auth.Algorithm,
	)
	return auth.NewGuard(verifier), cleanup, nil
}
