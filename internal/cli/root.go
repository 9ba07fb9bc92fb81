// Package cli holds the bytenewz command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ByteNewz/internal/app"
	"ByteNewz/internal/config"
	"ByteNewz/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "bytenewz",
	Short:        "News aggregation backend",
	Long:         "bytenewz serves normalized news feeds from NewsAPI, APITube, NewsDataHub or RSS, with AI headlines and summaries.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(usageCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bytenewz %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo is called from main with values injected at build time.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// loadConfig reads the config and builds a logger. Commands other than serve
// log to stderr so their table output stays clean.
func loadConfig(toStderr bool) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	if toStderr {
		return cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level), nil
	}
	return cfg, logging.New(cfg.Logging.Level), nil
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app.Application, error) {
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("starting bytenewz: %w", err)
	}
	return application, nil
}
