package main

import (
	"fmt"

	"daily_quest/pkg/logger"

	"github.com/spf13/cobra"
)

var flagConfig string

// cfg is loaded by PersistentPreRunE for every subcommand.
var cfg *Config

var rootCmd = &cobra.Command{
	Use:           "app",
	Short:         "Daily Quest web application",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Initialize(cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
}
