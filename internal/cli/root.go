// Package cli implements the runlog command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/app"
	"example.com/runlog/internal/config"
	"example.com/runlog/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "runlog",
	Short: "Sync Strava runs into Postgres and summarise weekly mileage",
	Long: `runlog pulls running activities from the Strava API, stores them in a
PostgreSQL table and reports weekly mileage.

Configuration is read from --config, $RUNLOG_CONFIG or ./runlog.yaml, and
RUNLOG_* environment variables override file values.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	logging.Init(logging.Config{Level: loaded.Logging.Level, Format: loaded.Logging.Format})
	cfg = loaded
	return nil
}

func openApp(ctx context.Context) (*app.App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.New(ctx, cfg)
}
