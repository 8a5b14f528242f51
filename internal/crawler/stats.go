package crawler

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Stats summarizes one crawl run.
type Stats struct {
	RunID    string    `json:"run_id"`
	Seed     string    `json:"seed"`
	Depth    int       `json:"depth"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// PagesFetched counts pages that returned text.
	PagesFetched int64 `json:"pages_fetched"`
	// PagesIndexed counts pages whose document row was written.
	PagesIndexed int64 `json:"pages_indexed"`
	// TermsWritten counts frequency rows written.
	TermsWritten int64 `json:"terms_written"`
	// LinksQueued counts extracted links submitted as tasks.
	LinksQueued      int64 `json:"links_queued"`
	Redirects        int64 `json:"redirects"`
	RedirectsDropped int64 `json:"redirects_dropped"`
	StorageErrors    int64 `json:"storage_errors"`
	// Outcomes counts fetches by fetcher outcome label.
	Outcomes map[string]int64 `json:"outcomes"`
}

// Elapsed returns the wall time of the run.
func (s *Stats) Elapsed() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// tally collects counters while tasks run.
type tally struct {
	pagesFetched     atomic.Int64
	pagesIndexed     atomic.Int64
	termsWritten     atomic.Int64
	linksQueued      atomic.Int64
	redirects        atomic.Int64
	redirectsDropped atomic.Int64
	storageErrors    atomic.Int64

	mu       sync.Mutex
	outcomes map[string]int64
}

func newTally() *tally {
	return &tally{outcomes: make(map[string]int64)}
}

func (t *tally) outcome(label string) {
	t.mu.Lock()
	t.outcomes[label]++
	t.mu.Unlock()
}

// fill copies the counters into s.
func (t *tally) fill(s *Stats) {
	s.PagesFetched = t.pagesFetched.Load()
	s.PagesIndexed = t.pagesIndexed.Load()
	s.TermsWritten = t.termsWritten.Load()
	s.LinksQueued = t.linksQueued.Load()
	s.Redirects = t.redirects.Load()
	s.RedirectsDropped = t.redirectsDropped.Load()
	s.StorageErrors = t.storageErrors.Load()

	t.mu.Lock()
	s.Outcomes = maps.Clone(t.outcomes)
	t.mu.Unlock()
}
