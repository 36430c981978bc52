package main

import (
	"fmt"
	"os"

	"github.com/adforge/backend/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Template import and maintenance tool",
	Long:  `importer loads ad templates from CSV or XLSX sheets and helps operate the template API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = zap.NewProduction()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg = config.Load()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(importCmd, tokenCmd, migrateCmd, watchCmd)
}
