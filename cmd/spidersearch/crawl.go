package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/spidersearch/internal/charset"
	"github.com/nao1215/spidersearch/internal/config"
	"github.com/nao1215/spidersearch/internal/crawler"
	"github.com/nao1215/spidersearch/internal/fetcher"
	"github.com/nao1215/spidersearch/internal/index"
	"github.com/nao1215/spidersearch/internal/metrics"
	"github.com/nao1215/spidersearch/internal/parser"
	"github.com/nao1215/spidersearch/internal/report"
	"github.com/nao1215/spidersearch/internal/scheduler"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a site and index its pages",
		Long: `Crawl fetches the seed page and every page reachable from it within the
given link depth, and stores the word frequencies of each page in the index.

Depth 0 indexes only the seed. Redirects are followed at the same depth, up to
spider.max_redirects hops. A summary of the run is printed when the crawl ends
or is interrupted.

Examples:
  # Index a site two links deep
  spidersearch crawl --seed https://example.com --depth 2

  # Use 8 workers and write a Markdown report
  spidersearch crawl --seed https://example.com -w 8 --markdown -r report.md

  # Seed and database from the configuration file
  spidersearch crawl -c spidersearch.yaml`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("seed", "s", "", "Seed URL (overrides spider.seed)")
	cmd.Flags().IntP("depth", "d", config.DefaultDepth, "Maximum link depth from the seed")
	cmd.Flags().IntP("workers", "w", 0, "Number of crawl workers (default: NumCPU-2)")
	cmd.Flags().StringP("report", "r", "",
		"Write the crawl report to the specified file path and a text summary to stdout (creates directories if needed)")
	cmd.Flags().BoolP("json", "j", false, "Output a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// crawlOptions are the crawl settings taken from flags.
type crawlOptions struct {
	reportPath string
	format     report.Format
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := applyCrawlFlags(cmd, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, opts, cmd.OutOrStdout(), logger)
}

// applyCrawlFlags overrides cfg with the flags the user set explicitly.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) (crawlOptions, error) {
	var (
		opts crawlOptions
		err  error
	)
	flags := cmd.Flags()

	if flags.Changed("seed") {
		if cfg.Spider.Seed, err = flags.GetString("seed"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("depth") {
		if cfg.Spider.Depth, err = flags.GetInt("depth"); err != nil {
			return opts, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Spider.Workers, err = flags.GetInt("workers"); err != nil {
			return opts, err
		}
	}

	if opts.reportPath, err = flags.GetString("report"); err != nil {
		return opts, err
	}

	jsonReport, err := flags.GetBool("json")
	if err != nil {
		return opts, err
	}
	markdownReport, err := flags.GetBool("markdown")
	if err != nil {
		return opts, err
	}
	switch {
	case jsonReport:
		opts.format = report.FormatJSON
	case markdownReport:
		opts.format = report.FormatMarkdown
	default:
		opts.format = report.FormatText
	}
	return opts, nil
}

// runCrawl wires the scheduler, fetcher and index into a crawler and runs
// one crawl from the configured seed.
func runCrawl(ctx context.Context, cfg *config.Config, opts crawlOptions, stdout io.Writer, logger *slog.Logger) error {
	seed, err := cfg.Spider.SeedLink()
	if err != nil {
		return err
	}

	normalizer, err := charset.NewNormalizer(cfg.Spider.OutputCharset)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store, err := index.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close index", "error", err)
		}
	}()

	m := metrics.New()

	pool := scheduler.New(
		scheduler.WithWorkers(cfg.Spider.Workers),
		scheduler.WithLogger(logger),
		scheduler.WithGauges(m.QueuedTasks, m.RunningTasks),
	)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer pool.Shutdown()

	f := fetcher.New(
		fetcher.WithTimeout(cfg.Spider.Timeout),
		fetcher.WithUserAgent(cfg.Spider.UserAgent),
		fetcher.WithMaxBodySize(cfg.Spider.MaxBodySize),
		fetcher.WithNormalizer(normalizer),
		fetcher.WithObserver(m),
		fetcher.WithLogger(logger),
	)

	c := crawler.New(pool, f, store,
		crawler.WithExtractor(newExtractor(cfg.Spider.Parser, logger)),
		crawler.WithMaxRedirects(cfg.Spider.MaxRedirects),
		crawler.WithRecorder(m),
		crawler.WithLogger(logger),
	)

	logger.Info("starting crawl",
		"seed", seed.String(),
		"depth", cfg.Spider.Depth,
		"workers", pool.Workers(),
		"driver", cfg.Database.Driver,
		"output_charset", normalizer.OutputName(),
	)

	stats, runErr := c.Crawl(ctx, seed, cfg.Spider.Depth)
	if stats == nil {
		return runErr
	}

	var totals *index.Stats
	// The crawl context may already be cancelled; totals are read regardless.
	if st, err := store.Stats(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to read index totals", "error", err)
	} else {
		totals = &st
	}

	summary := report.NewSummary(getVersion(), stats, totals, runErr)
	if err := writeSummary(summary, opts, stdout); err != nil {
		return err
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// newExtractor returns the link extractor named by spider.parser.
func newExtractor(name string, logger *slog.Logger) parser.LinkExtractor {
	if name == config.ParserDOM {
		return parser.NewDOMExtractor(logger)
	}
	return parser.NewPatternExtractor(logger)
}

// writeSummary prints the summary to stdout in the selected format. With a
// report path, the file gets the selected format and stdout a text summary.
func writeSummary(s *report.Summary, opts crawlOptions, stdout io.Writer) error {
	w, err := report.NewWriter(opts.format, stdout)
	if err != nil {
		return err
	}
	if opts.reportPath != "" {
		dir := filepath.Dir(opts.reportPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(opts.reportPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		file, err := report.NewWriter(opts.format, f)
		if err != nil {
			return err
		}
		w = report.NewMultiWriter(report.NewSimpleWriter(stdout), file)
	}

	if _, err := w.Write(s); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
