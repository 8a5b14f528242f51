package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/spidersearch/internal/config"
	"github.com/nao1215/spidersearch/internal/log"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration file, the optional .env file and the
// environment, in that order of increasing priority.
// An explicitly named file that does not exist is an error; otherwise a
// missing file leaves the defaults in place.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(explicit); path != "" {
		cfg, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if explicit != "" {
		return nil, fmt.Errorf("configuration file not found: %s", explicit)
	}

	if err := config.LoadDotEnv(""); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger from the persistent flags. level is
// used unless --verbose is set.
func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // persistent flag always defined
	jsonLogs, _ := cmd.Flags().GetBool("log-json") //nolint:errcheck // persistent flag always defined

	logger := log.New(cmd.ErrOrStderr(), log.Options{
		Verbose: verbose,
		JSON:    jsonLogs,
		Level:   level,
	})
	slog.SetDefault(logger)
	return logger
}
