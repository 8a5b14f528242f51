package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for spidersearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spidersearch",
		Short: "Crawl a site into an index and search it",
		Long: `spidersearch is a small web search engine.

The crawl command fetches a seed page and everything reachable from it within
a link depth, tokenizes each page and stores word frequencies in PostgreSQL or
SQLite. The serve command answers ranked keyword queries over HTTP, and the
search command runs one query from the terminal.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .spidersearch.yaml in current, XDG config or home directory)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
