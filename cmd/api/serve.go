package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"propertyapi/internal/asset"
	"propertyapi/internal/otel"
	"propertyapi/internal/reconcile"
	"propertyapi/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on PORT.

The record store (DB_DRIVER) and blob store (STORAGE_DRIVER) are connected at startup.
When RECONCILE_SCHEDULE is set, orphaned images are swept in the background.
SIGINT or SIGTERM drains in-flight requests before the stores are closed.`,
	RunE: runServe,
}

var (
	initTracing = otel.Init
	openRepo    = openRepository
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(ctx, logger)
	if err != nil {
		return err
	}
	// Deferred releases run in reverse: sweeper, then database, then tracing.
	defer func() {
		release("tracing_shutdown_failed", shutdownTracing)
		logger.Info("shutdown_complete")
	}()

	repo, closeRepo, err := openRepo(ctx, cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", slog.String("driver", cfg.Database.Driver), slog.String("error_message", err.Error()))
		return err
	}
	defer release("database_close_failed", closeRepo)

	store, err := openStorage(cfg)
	if err != nil {
		logger.Error("storage_init_failed", slog.String("driver", cfg.Storage.Driver), slog.String("error_message", err.Error()))
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	assets, err := asset.NewManager(store, logger, reg)
	if err != nil {
		return err
	}
	svc := service.NewPropertyService(repo, assets, logger)

	app, err := newApp(cfg, logger, svc, repo, reg)
	if err != nil {
		return err
	}

	if cfg.Reconcile.Schedule != "" {
		sweeper := reconcile.NewSweeper(repo, assets, cfg.Reconcile.Grace, logger)
		if err := sweeper.Start(cfg.Reconcile.Schedule); err != nil {
			return err
		}
		defer release("", func(ctx context.Context) error {
			sweeper.Stop(ctx)
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started",
			slog.String("addr", cfg.ListenAddr()),
			slog.String("db_driver", cfg.Database.Driver),
			slog.String("storage_driver", cfg.Storage.Driver),
		)
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown_started")
	case serveErr = <-errCh:
		logger.Error("server_failed", slog.String("error_message", serveErr.Error()))
	}

	release("http_shutdown_failed", app.ShutdownWithContext)

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}

// release runs fn under a fresh shutdown deadline and logs event when it fails.
func release(event string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error(event, slog.String("error_message", err.Error()))
	}
}
