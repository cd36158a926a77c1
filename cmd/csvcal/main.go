package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"csvcal/internal/config"
	appLog "csvcal/internal/log"
)

const version = "0.1.0"

// Flag values shared by every subcommand.
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "csvcal",
	Short: "Month calendar fed by CSV event sheets",
	Long: `csvcal loads events from one or more CSV feeds (for example a published
Google Sheet) and shows them as a month calendar: in the browser, in the
terminal, as an iCalendar feed or as a PNG snapshot.

When the first feed cannot be loaded the configured fallback file is used
in its place.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is loaded after flag registration, so the env default is
		// applied here.
		if !cmd.Flags().Changed("config") {
			if env := os.Getenv("CSVCAL_CONFIG"); env != "" {
				configPath = env
			}
		}
		if logLevel == "" {
			return
		}
		if lvl, ok := appLog.ParseLevel(logLevel); ok {
			appLog.SetLevel(lvl)
		} else {
			appLog.Warn("unknown log level, keeping default", nil, "log_level", logLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config file (env CSVCAL_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monthCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "csvcal "+version)
	},
}

func main() {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		appLog.Warn("failed to load .env", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the environment and
// --log-level overrides.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	if env := os.Getenv("CSVCAL_LISTEN"); env != "" {
		conf.Listen = env
	}
	if logLevel == "" {
		if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
			appLog.SetLevel(lvl)
		}
	}
	return conf, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
