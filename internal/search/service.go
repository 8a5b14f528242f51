package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/spidersearch/internal/cache"
)

// Index is the query side of the index store.
type Index interface {
	RankedSearch(ctx context.Context, terms []string) ([]string, error)
}

// CacheRecorder counts cache lookups. *metrics.Metrics implements it.
type CacheRecorder interface {
	CacheLookup(result string)
}

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Service runs ranked searches through an optional result cache.
type Service struct {
	index    Index
	cache    cache.Cache
	recorder CacheRecorder
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache sets the result cache. The default caches nothing.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheRecorder sets the cache lookup counter.
func WithCacheRecorder(r CacheRecorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService returns a Service over idx.
func NewService(idx Index, opts ...ServiceOption) *Service {
	s := &Service{
		index:  idx,
		cache:  cache.Nop{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to ten URLs ranked by the summed frequency of terms.
// Cache failures are logged and never fail the search.
func (s *Service) Search(ctx context.Context, terms []string) ([]string, error) {
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}

	urls, ok, err := s.cache.Get(ctx, terms)
	switch {
	case err != nil:
		s.record(CacheError)
		s.logger.Warn("cache lookup failed", "error", err)
	case ok:
		s.record(CacheHit)
		return urls, nil
	default:
		s.record(CacheMiss)
	}

	urls, err = s.index.RankedSearch(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	if err := s.cache.Set(ctx, terms, urls); err != nil {
		s.logger.Warn("cache store failed", "error", err)
	}
	return urls, nil
}

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.CacheLookup(result)
	}
}
