package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:          "videoreview",
	Short:        "video review server",
	Long:         "Stores uploaded videos in projects and folders and serves them for frame-accurate review comments.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load before reading the environment (default .env when present)")
}
