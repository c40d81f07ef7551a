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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"familytree/internal/app"
	"familytree/internal/config"
	"familytree/internal/handlers"
	"familytree/internal/logging"
	"familytree/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", logging.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := security.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// Listen before initializing so /healthz can report progress
	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepGraphBackend,
		handlers.StepServices,
	)
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           startup,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a, err := initialize(ctx, cfg, logger, startup)
	if err != nil {
		shutdown(server, cfg.ShutdownTimeout, logger)
		return err
	}
	defer a.Close(context.Background())

	limiter := security.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	api := &handlers.API{
		Families:      handlers.NewFamilyHandler(a.Families, logger),
		Persons:       handlers.NewPersonHandler(a.Persons, logger),
		Relationships: handlers.NewRelationshipHandler(a.Relationships, logger),
		Trees:         handlers.NewTreeHandler(a.Trees, logger),
		Activity:      handlers.NewActivityHandler(a.Activity, logger),
	}
	if cfg.MetricsEnabled {
		api.Metrics = promhttp.Handler()
	}
	startup.SetHandler(api.Routes(handlers.NewMiddleware(tokens, limiter, logger)))
	startup.MarkReady()
	logger.Info("server ready",
		slog.String("database", cfg.DatabaseType),
		slog.String("graph_backend", cfg.GraphBackend))

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdown(server, cfg.ShutdownTimeout, logger)
	return nil
}

func initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger, startup *handlers.StartupStatus) (*app.App, error) {
	startup.SetCurrentStep(handlers.StepDatabase)
	a, err := app.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := a.Migrate(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepGraphBackend)
	if err := a.ConnectStore(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	startup.CompleteStep(handlers.StepGraphBackend)

	startup.SetCurrentStep(handlers.StepServices)
	a.BuildServices()
	startup.CompleteStep(handlers.StepServices)
	return a, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", logging.Error(err))
	}
}
