// dailycommute builds the morning briefing page: weather, today's agenda,
// the name of the day and a quote.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cpuguy83/dailycommute/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg     *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "dailycommute",
	Short: "Build the daily briefing page",
	Long: `dailycommute gathers the weather forecast, today's calendar events, the
name of the day and a quote, renders them as an HTML page and uploads it.

  run        Build and publish today's page once
  events     Print today's events
  schedule   Publish the page every day on the configured schedule`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return setupLogging(cfg.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/dailycommute/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// setupLogging installs the default logger, writing to stderr and, when
// path is set, appending to that file.
func setupLogging(path string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("dailycommute failed", "error", err)
		os.Exit(1)
	}
}
