package search

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/spidersearch/internal/cache"
	"github.com/nao1215/spidersearch/internal/log"
)

// fakeIndex answers from a map keyed by the joined terms.
type fakeIndex struct {
	mu      sync.Mutex
	results map[string][]string
	err     error
	calls   int
}

func (f *fakeIndex) RankedSearch(_ context.Context, terms []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if urls, ok := f.results[strings.Join(terms, " ")]; ok {
		return urls, nil
	}
	return []string{}, nil
}

// memoryCache is a Cache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]string
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]string)}
}

func (c *memoryCache) Get(_ context.Context, terms []string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, false, c.err
	}
	urls, ok := c.entries[cache.Key(terms)]
	return urls, ok, nil
}

func (c *memoryCache) Set(_ context.Context, terms []string, urls []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.entries[cache.Key(terms)] = urls
	return nil
}

// lookups counts cache results.
type lookups struct {
	mu     sync.Mutex
	counts map[string]int
}

func (l *lookups) CacheLookup(result string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[result]++
}

func TestServiceSearch(t *testing.T) {
	t.Parallel()

	t.Run("second query is served from cache", func(t *testing.T) {
		t.Parallel()

		idx := &fakeIndex{results: map[string][]string{"cat dog": {"http://a.com/"}}}
		rec := &lookups{}
		svc := NewService(idx, WithCache(newMemoryCache()), WithCacheRecorder(rec), WithServiceLogger(log.Discard()))

		for range 2 {
			got, err := svc.Search(context.Background(), []string{"cat", "dog"})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if want := []string{"http://a.com/"}; !slices.Equal(got, want) {
				t.Errorf("Search() = %v, want %v", got, want)
			}
		}
		if idx.calls != 1 {
			t.Errorf("index calls = %d, want 1", idx.calls)
		}
		if rec.counts[CacheMiss] != 1 || rec.counts[CacheHit] != 1 {
			t.Errorf("lookups = %v, want one miss and one hit", rec.counts)
		}
	})

	t.Run("cache failure falls back to index", func(t *testing.T) {
		t.Parallel()

		idx := &fakeIndex{results: map[string][]string{"cat": {"http://a.com/"}}}
		c := newMemoryCache()
		c.err = errors.New("connection refused")
		rec := &lookups{}
		svc := NewService(idx, WithCache(c), WithCacheRecorder(rec), WithServiceLogger(log.Discard()))

		got, err := svc.Search(context.Background(), []string{"cat"})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Search() = %v, want one result", got)
		}
		if rec.counts[CacheError] != 1 {
			t.Errorf("lookups = %v, want one error", rec.counts)
		}
	})

	t.Run("index failure is returned", func(t *testing.T) {
		t.Parallel()

		idxErr := errors.New("index down")
		svc := NewService(&fakeIndex{err: idxErr}, WithServiceLogger(log.Discard()))

		if _, err := svc.Search(context.Background(), []string{"cat"}); !errors.Is(err, idxErr) {
			t.Errorf("Search() error = %v, want %v", err, idxErr)
		}
	})

	t.Run("no terms", func(t *testing.T) {
		t.Parallel()

		svc := NewService(&fakeIndex{})
		if _, err := svc.Search(context.Background(), nil); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Search(nil) error = %v, want ErrEmptyQuery", err)
		}
	})
}
