package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/venturebridge/venturebridge/internal/app"
	"github.com/venturebridge/venturebridge/pkg/config"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "venturebridge",
		Short: "VentureBridge sponsor/proposer marketplace",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("venturebridge %s\n", version)
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.ServiceVersion = version
	logger := observability.NewLogger(logCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var container *app.Container
	switch cfg.DatabaseDriver {
	case "sqlite":
		container, err = app.NewLocalContainer(ctx, cfg, logger)
	default:
		container, err = app.NewContainer(ctx, cfg, logger)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start outbox processor: %w", err)
		}
	} else {
		logger.Info("outbox processor disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := container.APIServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("venturebridge started", "version", version, "addr", cfg.HTTPAddr)

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := container.APIServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown error", "error", err)
	}
	return nil
}
