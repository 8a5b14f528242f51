// Package fetcher downloads documents over HTTP and HTTPS and normalizes
// their text into a single charset.
//
// Certificate validation is disabled: the crawler accepts any certificate.
// Redirects are never followed; they are reported so the caller decides.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/spidersearch/internal/charset"
	"github.com/nao1215/spidersearch/internal/model"
)

const (
	// DefaultTimeout is the connection deadline for one request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent is sent when no other is configured.
	DefaultUserAgent = "spidersearch/1.0"

	// drainLimit is how much of an unused body is read to keep the connection reusable.
	drainLimit = 4 << 10
)

// Result is the outcome of one fetch. Text is set only for OutcomeOK,
// Location only for OutcomeRedirect, StatusCode whenever a response arrived.
type Result struct {
	Text       string
	Outcome    Outcome
	StatusCode int
	Location   model.Link
	// Charset is the charset the document was declared in.
	Charset string
	Err     error
}

// Observer receives one call per fetch. The metrics package implements it.
type Observer interface {
	ObserveFetch(outcome string, elapsed time.Duration)
}

// Fetcher performs GET requests for links.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	normalizer  *charset.Normalizer
	logger      *slog.Logger
	observer    Observer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits the bytes read from a response body.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithNormalizer sets the output charset conversion.
func WithNormalizer(n *charset.Normalizer) Option {
	return func(f *Fetcher) {
		if n != nil {
			f.normalizer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithObserver reports every fetch to o.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		f.observer = o
	}
}

// New returns a Fetcher with a 30s deadline, Windows-1251 output and an
// accept-any-certificate TLS configuration.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Transport: newTransport(),
			Timeout:   DefaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		normalizer:  charset.Windows1251(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // the crawler accepts any certificate
		MinVersion:         tls.VersionTLS12,
	}
	return t
}

// Normalizer returns the charset conversion in use, so the tokenizer can
// read text in the same charset.
func (f *Fetcher) Normalizer() *charset.Normalizer {
	return f.normalizer
}

// Fetch downloads link. It never returns a Go error: failures are reported
// through Result.Outcome and Result.Err.
func (f *Fetcher) Fetch(ctx context.Context, link model.Link) Result {
	start := time.Now()
	res := f.fetch(ctx, link)

	if f.observer != nil {
		f.observer.ObserveFetch(res.Outcome.String(), time.Since(start))
	}
	f.logger.Debug("fetched",
		"url", link.String(),
		"outcome", res.Outcome.String(),
		"status", res.StatusCode,
		"elapsed", time.Since(start),
	)
	return res
}

func (f *Fetcher) fetch(ctx context.Context, link model.Link) Result {
	if !link.Valid() {
		return failure(OutcomeTransportError, 0, fmt.Errorf("%w: %+v", ErrInvalidLink, link))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), nil)
	if err != nil {
		return failure(OutcomeTransportError, 0, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return failure(OutcomeTransportError, 0, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return f.readText(resp)
	case isRedirect(code):
		drain(resp.Body)
		return redirect(link, resp)
	case code >= 400 && code < 500:
		drain(resp.Body)
		return failure(OutcomeClientError, code, fmt.Errorf("%w: %d", ErrClientError, code))
	case code >= 500 && code < 600:
		drain(resp.Body)
		return failure(OutcomeServerError, code, fmt.Errorf("%w: %d", ErrServerError, code))
	default:
		drain(resp.Body)
		return failure(OutcomeUnhandledStatus, code, fmt.Errorf("%w: %d", ErrUnhandledStatus, code))
	}
}

func (f *Fetcher) readText(resp *http.Response) Result {
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return failure(OutcomeTransportError, resp.StatusCode, fmt.Errorf("%w: failed to read body: %w", ErrTransport, err))
	}

	if bytes.IndexByte(body, 0) >= 0 {
		return failure(OutcomeNonText, resp.StatusCode, ErrNonText)
	}

	text, cs, err := f.normalizer.Normalize(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return failure(OutcomeTransportError, resp.StatusCode, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	return Result{Text: text, Outcome: OutcomeOK, StatusCode: resp.StatusCode, Charset: cs}
}

func redirect(from model.Link, resp *http.Response) Result {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return failure(OutcomeTransportError, resp.StatusCode, ErrBadLocation)
	}
	target, err := model.Resolve(from, loc)
	if err != nil {
		return failure(OutcomeTransportError, resp.StatusCode, fmt.Errorf("%w: %w", ErrBadLocation, err))
	}
	return Result{Outcome: OutcomeRedirect, StatusCode: resp.StatusCode, Location: target}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func failure(o Outcome, code int, err error) Result {
	return Result{Outcome: o, StatusCode: code, Err: err}
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))
}
