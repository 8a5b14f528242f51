package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/spidersearch/internal/index"
	"github.com/nao1215/spidersearch/internal/report"
	"github.com/nao1215/spidersearch/internal/search"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <words...>",
		Short: "Run one ranked query against the index",
		Long: `Search ranks indexed pages by the summed frequency of the given words and
prints the ten best matches. Words are lower-cased and stripped of every
character outside a-z, exactly as the query server does.

Examples:
  # Markdown output (default)
  spidersearch search golang concurrency

  # JSON output
  spidersearch search --json golang`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output results as JSON")
	cmd.Flags().BoolP("plain", "P", false, "Output results as a numbered plain text list")
	cmd.MarkFlagsMutuallyExclusive("json", "plain")

	return cmd
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	terms, err := search.ParsePhrase(strings.Join(args, " "))
	if err != nil {
		return err
	}

	format := report.FormatMarkdown
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON { //nolint:errcheck // flag defined above
		format = report.FormatJSON
	} else if plain, _ := cmd.Flags().GetBool("plain"); plain { //nolint:errcheck // flag defined above
		format = report.FormatText
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, slog.LevelWarn)
	ctx := cmd.Context()

	store, err := index.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer store.Close()

	urls, err := search.NewService(store, search.WithServiceLogger(logger)).Search(ctx, terms)
	if err != nil {
		return err
	}
	return report.WriteResults(cmd.OutOrStdout(), format, report.Results{Terms: terms, URLs: urls})
}
