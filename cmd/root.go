// Package cmd holds the archivioctl maintenance commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/archivio-maledetto/archivio/archivio"
	"github.com/archivio-maledetto/archivio/archivio/database"
	"github.com/archivio-maledetto/archivio/archivio/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *archivio.Config
)

var rootCmd = &cobra.Command{
	Use:           "archivioctl",
	Short:         "Maintenance commands for the Archivio rules engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := archivio.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
}

// Execute runs the command line and exits non-zero on failure.
func Execute(version string) {
	rootCmd.Version = version
	start := time.Now()
	executed, err := rootCmd.ExecuteContextC(context.Background())
	if executed != nil && executed != rootCmd && cfg != nil {
		logger.LogCommand(executed.Name(), time.Since(start), err)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openDB connects with the configured driver and brings the schema up to date.
func openDB(ctx context.Context) (*database.DB, error) {
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openBot wires the services without a Discord client.
func openBot(ctx context.Context) (*archivio.Bot, func(), error) {
	db, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	b := archivio.New(*cfg, rootCmd.Version, "")
	if err := b.InitServices(db, nil); err != nil {
		db.Close()
		return nil, nil, err
	}
	return b, db.Close, nil
}
