// Command hostel runs the hostel accounting API and its admin tasks.
//
// Usage:
//
//	hostel serve
//	hostel migrate
//	hostel create-user alice --email alice@example.com --password s3cretpass --staff
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/hostel/internal/config"
	"github.com/mmynk/hostel/internal/storage/sqlite"
	"github.com/mmynk/hostel/pkg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "hostel",
		Short:         "Shared purchase accounting for hostel roommates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	load := func() (config.Config, error) {
		cfg, err := config.Load(envFiles...)
		if err != nil {
			return config.Config{}, err
		}
		logging.Setup(cfg.LogLevel)
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newCreateUserCommand(load),
	)
	return root
}

type configLoader func() (config.Config, error)

// openStore opens the database, applying any pending migrations.
func openStore(cfg config.Config) (*sqlite.SQLiteStore, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err, "database", cfg.DBPath)
		return nil, err
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)
	return store, nil
}

func newMigrateCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}
