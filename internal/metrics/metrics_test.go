package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetch(t *testing.T) {
	t.Parallel()

	m := NewWithRegistry(prometheus.NewRegistry())
	m.ObserveFetch("ok", 20*time.Millisecond)
	m.ObserveFetch("ok", 30*time.Millisecond)
	m.ObserveFetch("redirect", time.Millisecond)

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("fetch_total{outcome=ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("redirect")); got != 1 {
		t.Errorf("fetch_total{outcome=redirect} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.FetchDuration); got != 2 {
		t.Errorf("fetch_duration series = %d, want 2", got)
	}
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := NewWithRegistry(prometheus.NewRegistry())
	m.PageIndexed()
	m.TermWritten()
	m.TermWritten()
	m.StorageError("add_term")
	m.RedirectDropped()
	m.CacheLookup("hit")
	m.CacheLookup("miss")
	m.CacheLookup("miss")

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"pages", m.PagesIndexed, 1},
		{"terms", m.TermsWritten, 2},
		{"storage", m.StorageErrors.WithLabelValues("add_term"), 1},
		{"redirects", m.RedirectsDrop, 1},
		{"cache hit", m.CacheLookups.WithLabelValues("hit"), 1},
		{"cache miss", m.CacheLookups.WithLabelValues("miss"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGauges(t *testing.T) {
	t.Parallel()

	m := NewWithRegistry(prometheus.NewRegistry())
	m.QueuedTasks.Set(4)
	m.RunningTasks.Set(2)

	if got := testutil.ToFloat64(m.QueuedTasks); got != 4 {
		t.Errorf("queued_tasks = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.RunningTasks); got != 2 {
		t.Errorf("running_tasks = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest(http.MethodPost, "/", http.StatusOK, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{
		`spidersearch_http_requests_total{code="200",method="POST",route="/"} 1`,
		"spidersearch_http_request_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
