// Package cmd defines the CLI commands for the crawlkit executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/logging"
	"github.com/avolkov/crawlkit/pkg/config"
)

var cfgFile string

type loggerKeyType struct{}

var loggerKey loggerKeyType

// newRootCmd creates and configures the root command. Configuration and the
// logger are initialized in PersistentPreRunE so every subcommand finds them
// ready in the command context.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlkit",
		Short: "A concurrent, bounded web crawl coordinator.",
		Long: `crawlkit turns a seed URL into a bounded, deduplicated, depth-limited
crawl executed by a pool of parallel workers. Each URL is fetched at most
once, the page budget is enforced exactly, and per-URL failures never abort
the run.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cfgFile); err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			logger, err := logging.New(logging.Options{
				Development: viper.GetBool("logging.development"),
				Level:       viper.GetString("logging.level"),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey, logger))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if logger := loggerFrom(cmd.Context()); logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/crawlkit, $HOME/.crawlkit)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "crawlkit: %v\n", err)
		os.Exit(1)
	}
}
