package search

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/spidersearch/internal/log"
)

func newTestServer(t *testing.T, idx Index, opts ...ServerOption) *httptest.Server {
	t.Helper()

	svc := NewService(idx, WithServiceLogger(log.Discard()))
	opts = append([]ServerOption{WithLogger(log.Discard())}, opts...)
	srv := httptest.NewServer(NewServer(svc, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func postForm(t *testing.T, url, body string) (int, string) {
	t.Helper()

	resp, err := http.Post(url, "application/x-www-form-urlencoded", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	return resp.StatusCode, readBody(t, resp)
}

func TestServerForm(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeIndex{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	for _, want := range []string{`<form action="/" method="post">`, `name="search"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form page missing %q", want)
		}
	}
}

func TestServerSearch(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{results: map[string][]string{
		"cat dog": {"http://a.com/", "http://b.com/x"},
	}}
	srv := newTestServer(t, idx)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       []string
		notWant    []string
	}{
		{
			name:       "results are listed in order",
			body:       "search=Cat+Dog",
			wantStatus: http.StatusOK,
			want:       []string{`<li><a href="http://a.com/">http://a.com/</a></li>`, `<a href="http://b.com/x">`},
			notWant:    []string{"Could not find"},
		},
		{
			name:       "no results",
			body:       "search=unicorn",
			wantStatus: http.StatusOK,
			want:       []string{"Could not find pages with this content!"},
			notWant:    []string{"<li>"},
		},
		{
			name:       "wrong key",
			body:       "q=cat",
			wantStatus: http.StatusBadRequest,
			want:       []string{"Invalid search key"},
		},
		{
			name:       "empty phrase",
			body:       "search=%21%21",
			wantStatus: http.StatusBadRequest,
			want:       []string{"Empty search attempt!"},
		},
		{
			name:       "malformed body",
			body:       "cat",
			wantStatus: http.StatusBadRequest,
			want:       []string{"Invalid request format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := postForm(t, srv.URL+"/", tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("body missing %q:\n%s", w, body)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(body, w) {
					t.Errorf("body contains %q:\n%s", w, body)
				}
			}
		})
	}
}

func TestServerSearchIndexFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeIndex{err: errors.New("index down")})

	status, body := postForm(t, srv.URL+"/", "search=cat")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if !strings.Contains(body, "Search failed") {
		t.Errorf("body = %q, want error page", body)
	}
	if strings.Contains(body, "index down") {
		t.Error("internal error leaked to the page")
	}
}

func TestServerNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeIndex{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, err := http.NewRequest(method, srv.URL+"/missing", nil)
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s /missing error = %v", method, err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s /missing status = %d, want 404", method, resp.StatusCode)
		}
		if !strings.Contains(body, "File not found") {
			t.Errorf("%s /missing body = %q", method, body)
		}
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeIndex{})

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT / error = %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body != "Invalid request-method 'PUT'" {
		t.Errorf("body = %q", body)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestServerHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pinger Pinger
		want   int
	}{
		{name: "no check configured", pinger: nil, want: http.StatusOK},
		{name: "healthy", pinger: stubPinger{}, want: http.StatusOK},
		{name: "unhealthy", pinger: stubPinger{err: errors.New("down")}, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []ServerOption
			if tt.pinger != nil {
				opts = append(opts, WithHealthCheck(tt.pinger))
			}
			srv := newTestServer(t, &fakeIndex{}, opts...)

			resp, err := http.Get(srv.URL + "/healthz")
			if err != nil {
				t.Fatalf("GET /healthz error = %v", err)
			}
			_ = readBody(t, resp)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

// requests records observed routes.
type requests struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (r *requests) ObserveRequest(_, route string, code int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	r.codes = append(r.codes, code)
}

func TestServerMetrics(t *testing.T) {
	t.Parallel()

	rec := &requests{}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "metrics")
	})
	srv := newTestServer(t, &fakeIndex{}, WithRequestRecorder(rec), WithMetricsHandler(metricsHandler))

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	if body := readBody(t, resp); body != "metrics" {
		t.Errorf("GET /metrics body = %q", body)
	}
	resp, err = http.Get(srv.URL + "/nowhere")
	if err != nil {
		t.Fatalf("GET /nowhere error = %v", err)
	}
	_ = readBody(t, resp)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.routes) != 2 {
		t.Fatalf("recorded %d requests, want 2", len(rec.routes))
	}
	if rec.routes[0] != "/metrics" || rec.codes[0] != http.StatusOK {
		t.Errorf("first request = %s %d, want /metrics 200", rec.routes[0], rec.codes[0])
	}
	if rec.codes[1] != http.StatusNotFound {
		t.Errorf("second request code = %d, want 404", rec.codes[1])
	}
}

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(NewService(&fakeIndex{}), WithLogger(log.Discard()))

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	var resp *http.Response
	for range 50 {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	_ = readBody(t, resp)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}
