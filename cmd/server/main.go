// Command server runs the crypto investment platform API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simplecrypto/server/internal/auth"
	"github.com/simplecrypto/server/internal/config"
	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/handlers"
	"github.com/simplecrypto/server/internal/job"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/secrets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)
	logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores *repository.Stores
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		database, err := db.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck // Close is logged internally
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		stores = repository.NewPostgresStores(database)
	case config.StoreDriverMemory:
		logger.Warn("using in-memory stores, all data is lost on shutdown")
		stores = repository.NewMemoryStores()
	}

	box, err := secrets.NewBox(cfg.Auth.TOTPEncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid TOTP encryption key: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	svcs := handlers.NewServices(stores, tokens, box, cfg, logger)
	router := handlers.NewRouter(svcs, stores, tokens, cfg, logger)

	clock := job.SystemClock()
	autoApprove := job.NewAutoApproveJob(stores.Withdrawals, clock, logger,
		cfg.Jobs.AutoApproveInterval, cfg.Jobs.AutoApproveThreshold)
	maturation := job.NewMaturationJob(stores.Investments, svcs.Ledger, svcs.Notifications,
		clock, logger, cfg.Jobs.MaturationInterval)
	go autoApprove.Start(ctx)
	go maturation.Start(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
