package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avolkov/crawlkit/internal/crawler"
	collyfetcher "github.com/avolkov/crawlkit/internal/fetcher/colly"
	goqueryparser "github.com/avolkov/crawlkit/internal/parser/goquery"
	"github.com/avolkov/crawlkit/internal/progress"
)

// newCrawlCmd creates the 'crawl' subcommand: a single synchronous crawl run
// from the given seed URL.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Run a single bounded crawl from a seed URL",
		Long: `Runs one crawl: the seed is claimed and enqueued at depth 0, the worker
pool drains the frontier, and a summary of committed pages and failed URLs is
printed when the run completes.`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCommand,
	}
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	logger := loggerFrom(cmd.Context())

	cfg, err := crawler.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load crawler config: %w", err)
	}

	hub, err := buildProgressHub(logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}()

	engine, err := buildEngine(cfg, hub, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := engine.Crawl(ctx, args[0])
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	printSummary(cmd, result)
	return nil
}

func buildEngine(cfg crawler.Config, hub *progress.Hub, logger *zap.Logger) (*crawler.Engine, error) {
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: viper.GetString("crawler.user_agent"),
		Timeout:   cfg.Timeout,
	}, logger)

	engine, err := crawler.NewEngine(cfg, fetcher, goqueryparser.New(), hub, logger)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return engine, nil
}

func buildProgressHub(logger *zap.Logger) (*progress.Hub, error) {
	promSink, err := progress.NewPrometheusSink(nil)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	return progress.NewHub(progress.HubConfig{Logger: logger}, progress.NewLogSink(logger), promSink), nil
}

func printSummary(cmd *cobra.Command, result crawler.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s finished in %s\n", result.RunID, result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Fprintf(out, "pages committed: %d\n", len(result.Pages))
	for _, p := range result.Pages {
		fmt.Fprintf(out, "  %d  %s  %q\n", p.StatusCode, p.URL, p.Title)
	}
	fmt.Fprintf(out, "failed urls: %d\n", len(result.Failures))
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  %s  (%s)\n", f.URL, f.Reason)
	}
}
