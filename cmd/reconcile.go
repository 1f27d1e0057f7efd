package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"videoreview/internal/jobs"
	"videoreview/internal/repository"
)

var deleteOrphans bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "list (or delete) uploaded files no video or version references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		gateway, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer gateway.Close()
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}

		job := &jobs.ReconcileJob{
			JobID:  uuid.NewString(),
			Delete: deleteOrphans,
			Store:  store,
			Refs:   repository.New(gateway, logger),
			Logger: logger,
		}
		if err := job.Execute(ctx); err != nil {
			return err
		}
		for _, p := range job.Orphans {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&deleteOrphans, "delete", false, "remove the orphaned files instead of only listing them")
	rootCmd.AddCommand(reconcileCmd)
}
