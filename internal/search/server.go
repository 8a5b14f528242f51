package search

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	// maxBodySize bounds a submitted form.
	maxBodySize = 64 << 10

	// DefaultReadTimeout bounds reading a request.
	DefaultReadTimeout = 10 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Messages shown on the error page.
const (
	msgInvalidRequest = "Invalid request format"
	msgInvalidKey     = "Invalid search key"
	msgEmptyQuery     = "Empty search attempt!"
	msgNotFound       = "File not found"
	msgSearchFailed   = "Search failed"
)

// Pinger reports whether the index is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RequestRecorder counts requests. *metrics.Metrics implements it.
type RequestRecorder interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

// Server is the HTTP frontend of a Service.
type Server struct {
	service     *Service
	health      Pinger
	recorder    RequestRecorder
	metrics     http.Handler
	logger      *slog.Logger
	readTimeout time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHealthCheck makes /healthz ping p.
func WithHealthCheck(p Pinger) ServerOption {
	return func(s *Server) {
		s.health = p
	}
}

// WithRequestRecorder records every request.
func WithRequestRecorder(r RequestRecorder) ServerOption {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReadTimeout sets the request read timeout.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// NewServer returns a Server for svc.
func NewServer(svc *Service, opts ...ServerOption) *Server {
	s := &Server{
		service:     svc,
		logger:      slog.Default(),
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleForm)
	r.Post("/", s.handleSearch)
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.renderError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid request-method '%s'", r.Method)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("query server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("query server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down query server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("query server failed: %w", err)
	}
	s.logger.Info("query server stopped")
	return nil
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "index.html", nil)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.renderError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	terms, err := ParseBody(string(body))
	if err != nil {
		s.renderError(w, http.StatusBadRequest, userMessage(err))
		return
	}

	urls, err := s.service.Search(r.Context(), terms)
	if err != nil {
		s.logger.Error("search failed", "terms", terms, "error", err)
		s.renderError(w, http.StatusInternalServerError, msgSearchFailed)
		return
	}

	s.render(w, http.StatusOK, "results.html", struct {
		Terms []string
		URLs  []string
	}{terms, urls})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "unavailable")
			return
		}
	}
	fmt.Fprintln(w, "ok")
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("failed to render page", "template", name, "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, code int, msg string) {
	s.render(w, code, "error.html", struct{ Message string }{msg})
}

// observe logs and records every request with its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		if s.recorder != nil {
			s.recorder.ObserveRequest(r.Method, route, status, elapsed)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"elapsed", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// userMessage maps a parse error to the text shown on the error page.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidKey):
		return msgInvalidKey
	case errors.Is(err, ErrEmptyQuery):
		return msgEmptyQuery
	default:
		return msgInvalidRequest
	}
}
