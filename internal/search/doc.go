// Package search answers queries against the index.
//
// ParseBody and ParsePhrase turn a submitted form into lower-case ASCII
// terms. Service looks the terms up in the result cache and falls back to
// the index's ranked search. Server exposes both over HTTP:
//
//	GET  /         search form
//	POST /         results for the form field "search"
//	GET  /healthz  index connectivity
//	GET  /metrics  Prometheus metrics
package search
