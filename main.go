package main

import (
	"fmt"
	"os"

	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "atelier-api",
		Short:         "Bespoke order production API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	})
	return root
}

// bootstrap loads configuration, installs the logger and opens the database.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Set(logger.NewLogger(cfg.LogLevel))

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrate() error {
	if _, err := bootstrap(); err != nil {
		return err
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		return err
	}
	logger.Get().Info("Database migration completed successfully")
	return nil
}
