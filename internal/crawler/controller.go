package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/spidersearch/internal/charset"
	"github.com/nao1215/spidersearch/internal/fetcher"
	"github.com/nao1215/spidersearch/internal/model"
	"github.com/nao1215/spidersearch/internal/parser"
	"github.com/nao1215/spidersearch/internal/scheduler"
)

// DefaultMaxRedirects is the longest redirect chain followed from one link.
const DefaultMaxRedirects = 5

// Scheduler runs tasks. *scheduler.Pool implements it.
type Scheduler interface {
	Submit(t scheduler.Task) error
	Wait(ctx context.Context) error
}

// Fetcher downloads one link. *fetcher.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, link model.Link) fetcher.Result
}

// Indexer is the part of the index store the crawl writes to.
type Indexer interface {
	AddDocument(ctx context.Context, url string) (int64, error)
	AddTerm(ctx context.Context, word string) (int64, error)
	UpsertFrequency(ctx context.Context, documentID, termID int64, count int) error
}

// Recorder receives crawl events. *metrics.Metrics implements it.
type Recorder interface {
	PageIndexed()
	TermWritten()
	StorageError(op string)
	RedirectDropped()
}

// Controller coordinates fetching, tokenizing, indexing and link expansion.
// A Controller can run several crawls; each has its own Stats.
type Controller struct {
	pool      Scheduler
	fetcher   Fetcher
	store     Indexer
	extractor parser.LinkExtractor
	tokenizer parser.Tokenizer
	recorder  Recorder
	logger    *slog.Logger

	maxRedirects int
}

// Option configures a Controller.
type Option func(*Controller)

// WithExtractor replaces the default PatternExtractor.
func WithExtractor(e parser.LinkExtractor) Option {
	return func(c *Controller) {
		c.extractor = e
	}
}

// WithTokenizer replaces the default PatternTokenizer.
func WithTokenizer(t parser.Tokenizer) Option {
	return func(c *Controller) {
		c.tokenizer = t
	}
}

// WithMaxRedirects sets the redirect hop limit. Zero drops every redirect.
func WithMaxRedirects(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// normalizing is implemented by fetchers that transcode text, so the default
// tokenizer can decode it again.
type normalizing interface {
	Normalizer() *charset.Normalizer
}

// New returns a Controller submitting tasks to pool, fetching with f and
// writing to store.
func New(pool Scheduler, f Fetcher, store Indexer, opts ...Option) *Controller {
	c := &Controller{
		pool:         pool,
		fetcher:      f,
		store:        store,
		recorder:     nopRecorder{},
		logger:       slog.Default(),
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.extractor == nil {
		c.extractor = parser.NewPatternExtractor(c.logger)
	}
	if c.tokenizer == nil {
		var topts []parser.TokenizerOption
		if n, ok := f.(normalizing); ok && n.Normalizer() != nil {
			topts = append(topts, parser.WithDecoder(n.Normalizer()))
		}
		c.tokenizer = parser.NewPatternTokenizer(topts...)
	}
	return c
}

// Crawl indexes seed and everything reachable from it within depth links,
// then returns the run's statistics. Depth 0 indexes only the seed.
//
// Crawl returns when the scheduler is idle or ctx is done; in the latter
// case the partial Stats are returned with ctx's error.
func (c *Controller) Crawl(ctx context.Context, seed model.Link, depth int) (*Stats, error) {
	if !seed.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, seed.String())
	}
	if depth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDepth, depth)
	}

	id := uuid.NewString()
	r := &run{
		id:     id,
		tally:  newTally(),
		logger: c.logger.With("run_id", id),
	}

	stats := &Stats{
		RunID:   r.id,
		Seed:    seed.String(),
		Depth:   depth,
		Started: time.Now(),
	}
	r.logger.Info("crawl started", "seed", stats.Seed, "depth", depth)

	if err := c.pool.Submit(&crawlTask{c: c, run: r, link: seed, depth: depth}); err != nil {
		return nil, fmt.Errorf("failed to submit seed: %w", err)
	}

	err := c.pool.Wait(ctx)

	stats.Finished = time.Now()
	r.tally.fill(stats)

	r.logger.Info("crawl finished",
		"elapsed", stats.Elapsed().Round(time.Millisecond),
		"pages_fetched", stats.PagesFetched,
		"pages_indexed", stats.PagesIndexed,
		"terms_written", stats.TermsWritten,
		"storage_errors", stats.StorageErrors,
	)
	if err != nil {
		return stats, fmt.Errorf("crawl interrupted: %w", err)
	}
	return stats, nil
}

// run is the state shared by the tasks of one Crawl call.
type run struct {
	id     string
	tally  *tally
	logger *slog.Logger
}

type nopRecorder struct{}

func (nopRecorder) PageIndexed()        {}
func (nopRecorder) TermWritten()        {}
func (nopRecorder) StorageError(string) {}
func (nopRecorder) RedirectDropped()    {}
