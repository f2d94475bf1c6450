package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/db"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/handlers/middleware"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/logger"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/observability"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/repository/postgres"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/service/auth/tokenmanager"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Optional error reporting
	if err := observability.InitSentry(c.SentryDSN, c.Environment); err != nil {
		return nil, fmt.Errorf("error while initializing sentry: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(
		tokenmanager.Config{
			SecretKey:  c.SecretKey,
			AccessTTL:  c.AccessTTL,
			RefreshTTL: c.RefreshTTL,
		},
		storage.Refresh(),
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Complete all together as router
	mux := handlers.NewRouter(handlers.RouterConfig{
		Auth:                handlers.NewAuth(authService),
		AuthMiddleware:      middleware.AuthMiddleware(authService),
		RecoverMiddleware:   middleware.RecoverMiddleware(log),
		LoggerMiddleware:    middleware.LoggerMiddleware(log),
		RateLimitMiddleware: middleware.NewRateLimiter(0, 0).Middleware,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	observability.FlushSentry()

	return err
}
