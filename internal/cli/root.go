// Package cli implements resultctl, the operator command line for grade-sheet ingestion.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yigit/resultsphere/internal/bootstrap"
	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/pkg/logger"
)

// Version is set at build time with -ldflags
var Version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "resultctl",
	Short:         "Ingest and inspect semester grade sheets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "resultctl %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", bootstrap.DefaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads configuration and sends logs to stderr so stdout stays machine readable
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	configureLogger(cfg.Logging.Level)
	return cfg, logger.Get(), nil
}

func configureLogger(level string) {
	lvl := logger.ParseLevel(level)
	if flagVerbose {
		lvl = logger.DebugLevel
	}
	logger.Configure(logger.Config{Level: lvl, Pretty: true, Output: os.Stderr})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
