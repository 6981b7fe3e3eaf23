package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"coffeeshop/internal/auth"
	applog "coffeeshop/internal/log"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// ErrGuardRequired is returned when a server is built without a permission guard.
var ErrGuardRequired = errors.New("server: permission guard is required")

// ErrDatabaseRequired is returned when a server is built without a database handle.
var ErrDatabaseRequired = errors.New("server: database is required")

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Database          *gorm.DB
	Guard             *auth.Guard
}

// Server wraps an http.Server exposing the drinks API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"readHeaderTimeout", cfg.ReadHeaderTimeout.String(),
		"shutdownTimeout", cfg.ShutdownTimeout.String(),
	)

	if cfg.Database == nil {
		return nil, ErrDatabaseRequired
	}
	if cfg.Guard == nil {
		return nil, ErrGuardRequired
	}
	if cfg.ReadHeaderTimeout <= 0 {
		applog.Debug(context.Background(), "read header timeout not provided, using default")
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		applog.Debug(context.Background(), "shutdown timeout not provided, using default")
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	handler, err := newRouter(cfg.Database, cfg.Guard)
	if err != nil {
		return nil, err
	}

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server. A
// graceful shutdown is not reported as an error.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting for in-flight requests
// up to the configured shutdown timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
