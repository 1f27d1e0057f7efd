package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videoreview/config"
	"videoreview/internal/db"
	"videoreview/internal/storage"
)

// loadConfig reads configuration and sets up the shared logger.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.InitLogger(cfg.LogLevel, cfg.LogFile), nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*db.Gateway, error) {
	g, err := db.Open(ctx, db.Options{
		Path:        cfg.DatabasePath,
		BusyRetries: cfg.BusyRetries,
		BusyBackoff: cfg.BusyBackoff(),
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return g, nil
}

// openStore builds the upload store with whichever mirrors are configured.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*storage.Store, error) {
	var sinks []storage.Sink
	if cfg.FlatMirrorDir != "" {
		flat, err := storage.NewFlatMirror(cfg.FlatMirrorDir)
		if err != nil {
			return nil, errors.Wrap(err, "flat mirror")
		}
		sinks = append(sinks, flat)
	}
	if cfg.MinioEnabled() {
		m, err := storage.NewMinioMirror(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "minio mirror")
		}
		sinks = append(sinks, m)
		logger.WithField("bucket", cfg.MinioBucket).Info("MinIO mirror enabled")
	}
	store, err := storage.NewStore(cfg.UploadRoot, logger, sinks...)
	if err != nil {
		return nil, errors.Wrap(err, "upload store")
	}
	return store, nil
}
