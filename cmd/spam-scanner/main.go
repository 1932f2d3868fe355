package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-scanner/internal/adapters/presenter"
	"github.com/mikey/spam-scanner/internal/config"
	"github.com/mikey/spam-scanner/internal/di"
	"github.com/mikey/spam-scanner/internal/modelstore"
	"github.com/mikey/spam-scanner/internal/ports"
	"github.com/mikey/spam-scanner/internal/scanner"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "spam-scanner",
		Short:         "Watch incoming mail and classify it with a Naive Bayes model",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildContainer(configFile)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(run)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (default: search /etc/spam-scanner, $HOME/.spam-scanner, ./configs, .)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	models *modelstore.Store,
	source ports.MessageSource,
	store ports.FeedbackStore,
	coordinator *scanner.Coordinator,
	board *presenter.Board,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A broken artifact is not fatal: every scan reports ERROR until it is
	// fixed, and the next scan retries the load.
	if _, err := models.EnsureLoaded(ctx); err != nil {
		logger.Error("Failed to load model", zap.Error(err))
	}

	observations, err := source.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start message source: %w", err)
	}

	httpCfg := cfg.GetHTTP()
	if httpCfg.Enabled {
		go func() {
			if err := board.Serve(ctx, httpCfg.ListenAddress); err != nil {
				logger.Error("Status board stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("Scanner running", zap.String("source", cfg.GetSource().Type))
	if err := coordinator.Run(ctx, observations); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Coordinator stopped", zap.Error(err))
	}
	logger.Info("Shutting down...")

	if err := source.Stop(); err != nil {
		logger.Error("Failed to stop message source", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close feedback store", zap.Error(err))
	}

	logger.Info("Shutdown complete",
		zap.Int("tasks_created", coordinator.Created()))
	return nil
}
