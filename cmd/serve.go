package cmd

import (
	"context"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"videoreview/handlers"
	"videoreview/internal/ingest"
	"videoreview/internal/repository"
	"videoreview/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gateway, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Startup failed")
			return err
		}
		defer gateway.Close()

		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Startup failed")
			return err
		}

		repo := repository.New(gateway, logger)
		ingestor := ingest.New(repo, store, logger, cfg.MaxUploadBytes())

		dispatcher := worker.NewDispatcher(cfg.Workers, cfg.JobQueueSize, logger)
		dispatcher.Run(context.Background())
		defer dispatcher.Stop()

		h := handlers.NewApplicationHandler(repo, ingestor, store, dispatcher, logger)
		bodyLimit := int(cfg.MaxUploadBytes()) + 1<<20
		if cfg.MaxUploadMB == 0 {
			bodyLimit = math.MaxInt32
		}
		app := handlers.NewApp(h, handlers.AppConfig{
			CORSOrigins: cfg.AllowedOrigins(),
			BodyLimit:   bodyLimit,
		})

		errCh := make(chan error, 1)
		go func() {
			logger.WithFields(logrus.Fields{
				"addr":     cfg.Address,
				"database": gateway.Path(),
				"uploads":  store.Root(),
			}).Info("Video review API listening")
			errCh <- app.Listen(cfg.Address)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logger.WithError(err).Error("Listener stopped")
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Warn("Graceful shutdown incomplete")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// Kept so "videoreview" with no subcommand still starts the server.
	rootCmd.RunE = serveCmd.RunE
}
