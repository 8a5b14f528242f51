package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/spidersearch/internal/crawler"
	"github.com/nao1215/spidersearch/internal/index"
)

// Summary is the report of one crawl run.
type Summary struct {
	// Version is the spidersearch version that ran the crawl.
	Version string `json:"version"`

	Crawl *crawler.Stats `json:"crawl"`

	// Index holds the index totals after the run. Nil if they could not be read.
	Index *index.Stats `json:"index,omitempty"`

	// Error is set when the run stopped early.
	Error string `json:"error,omitempty"`
}

// NewSummary builds a Summary. runErr is the error Crawl returned, if any.
func NewSummary(version string, stats *crawler.Stats, totals *index.Stats, runErr error) *Summary {
	s := &Summary{
		Version: version,
		Crawl:   stats,
		Index:   totals,
	}
	if s.Crawl == nil {
		s.Crawl = &crawler.Stats{}
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

// OutcomeCount is the number of fetches with one outcome.
type OutcomeCount struct {
	Outcome string
	Count   int64
}

// Outcomes returns the fetch outcomes, most frequent first.
func (s *Summary) Outcomes() []OutcomeCount {
	out := make([]OutcomeCount, 0, len(s.Crawl.Outcomes))
	for k, v := range s.Crawl.Outcomes {
		out = append(out, OutcomeCount{Outcome: k, Count: v})
	}
	slices.SortFunc(out, func(a, b OutcomeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Outcome, b.Outcome)
	})
	return out
}

// TotalFetches returns the number of fetch attempts.
func (s *Summary) TotalFetches() int64 {
	var n int64
	for _, v := range s.Crawl.Outcomes {
		n += v
	}
	return n
}

func (s *Summary) status() string {
	switch {
	case s.Error != "":
		return "Interrupted - " + s.Error
	case s.Crawl.PagesIndexed == 0:
		return "Nothing indexed"
	default:
		return "Complete"
	}
}

const timeLayout = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
