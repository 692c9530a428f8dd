package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"webmon/internal/version"
)

var (
	dbConfigFile string
	logLevel     string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "webmon",
		Short:        "Monitor a list of websites and save healthcheck metrics in a database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbConfigFile, "db-config", "", "JSON or YAML file with DB connection details (required)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN or ERROR")

	root.AddCommand(versionCmd())
	root.AddCommand(monitorCmd())
	root.AddCommand(dropTablesCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webmon %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// setupLogger builds the process logger from --log-level.
func setupLogger() (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
