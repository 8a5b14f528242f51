package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/spidersearch/internal/config"
)

// MaxResults is the number of URLs RankedSearch returns at most.
const MaxResults = 10

// Store is the index storage contract. Every method is atomic on its own.
type Store interface {
	// AddDocument returns the id of url, inserting it on first use.
	AddDocument(ctx context.Context, url string) (int64, error)
	// AddTerm returns the id of word, inserting it on first use.
	AddTerm(ctx context.Context, word string) (int64, error)
	// UpsertFrequency sets the count of (documentID, termID), replacing any previous count.
	UpsertFrequency(ctx context.Context, documentID, termID int64, count int) error
	// RankedSearch returns up to MaxResults URLs ordered by the summed count of terms.
	RankedSearch(ctx context.Context, terms []string) ([]string, error)
	// Stats returns row counts.
	Stats(ctx context.Context) (Stats, error)
	// Ping checks the connection.
	Ping(ctx context.Context) error
	Close() error
}

// Stats holds the size of each relation.
type Stats struct {
	Documents   int64 `json:"documents"`
	Terms       int64 `json:"terms"`
	Frequencies int64 `json:"frequencies"`
}

// Open connects to the backend selected by cfg.Driver and creates the schema.
// Failing to open the index is the only error that stops a crawl.
func Open(ctx context.Context, cfg config.Database, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.ConnString(), PostgresOptions{MaxConns: cfg.MaxConns, Logger: logger})
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path, SQLiteOptions{CreateIfNotExists: true, EnableWAL: true, Logger: logger})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// normalizeTerms drops empty and repeated terms, keeping the first occurrence.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateKey(op, key string) error {
	if key == "" {
		return storageError(op, ErrEmptyKey)
	}
	return nil
}

func validateCount(count int) error {
	if count < 1 {
		return storageError("upsert frequency", fmt.Errorf("%w: %d", ErrInvalidCount, count))
	}
	return nil
}
