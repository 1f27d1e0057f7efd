package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		gateway, err := openDatabase(context.Background(), cfg, logger)
		if err != nil {
			logger.WithError(err).Error("Migration failed")
			return err
		}
		defer gateway.Close()
		logger.WithField("database", gateway.Path()).Info("Database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
