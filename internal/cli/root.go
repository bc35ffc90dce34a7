// Package cli implements the nfequery command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/utilhub/nfequery/internal/config"
	"github.com/utilhub/nfequery/internal/logger"
	"github.com/utilhub/nfequery/internal/version"
)

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := &cobra.Command{
		Use:               "nfequery",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Fiscal document query client",
		Long:              "Query fiscal documents (NF-e) from the national distribution service using a local client certificate, and render them for viewing",
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.NewServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
			return nil
		},
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newSweepCmd())

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// userDownloadsDir returns the per-user downloads directory, or the working
// directory when the home directory cannot be resolved.
func userDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home + string(os.PathSeparator) + "Downloads"
}
