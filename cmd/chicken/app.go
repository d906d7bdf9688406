package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TingC12/Chicken-fitness-app/internal/db"
	"github.com/TingC12/Chicken-fitness-app/internal/handlers"
	"github.com/TingC12/Chicken-fitness-app/internal/logger"
	"github.com/TingC12/Chicken-fitness-app/internal/repository/postgres"
	"github.com/TingC12/Chicken-fitness-app/internal/service/activity"
	"github.com/TingC12/Chicken-fitness-app/internal/service/auth"
	"github.com/TingC12/Chicken-fitness-app/internal/service/auth/googleverifier"
	"github.com/TingC12/Chicken-fitness-app/internal/service/auth/tokenmanager"
	"github.com/TingC12/Chicken-fitness-app/internal/service/ledger"
	"github.com/TingC12/Chicken-fitness-app/internal/service/petstatus"
	"github.com/TingC12/Chicken-fitness-app/internal/service/user"
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

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	verifier, err := googleverifier.New(c.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("error while creating google verifier. Err: %w", err)
	}

	userService := user.NewService(storage)
	authService, err := auth.NewService(verifier, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	ledgerService := ledger.NewService(storage)
	activityService := activity.NewService(storage)
	petService := petstatus.NewService(storage)

	mux := handlers.NewRouter(
		authService,
		ledgerService,
		activityService,
		petService,
		log,
	)

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
	slog.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
