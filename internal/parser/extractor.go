package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/spidersearch/internal/model"
)

// LinkExtractor finds the outbound links of a document.
type LinkExtractor interface {
	// Extract returns links in order of first occurrence. Duplicates are kept.
	Extract(markup string, origin model.Link) []model.Link
}

// anchorHref matches the href attribute of an opening <a> tag.
var anchorHref = regexp.MustCompile(`(?i)<a\s+(?:[^>]*?\s+)?href\s*=\s*["']([^"']+)["'][^>]*>`)

// PatternExtractor extracts anchors with a regular expression.
type PatternExtractor struct {
	logger *slog.Logger
}

// NewPatternExtractor returns a PatternExtractor. A nil logger uses slog.Default().
func NewPatternExtractor(logger *slog.Logger) *PatternExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternExtractor{logger: logger}
}

// Extract implements LinkExtractor.
func (e *PatternExtractor) Extract(markup string, origin model.Link) []model.Link {
	matches := anchorHref.FindAllStringSubmatch(markup, -1)
	links := make([]model.Link, 0, len(matches))
	for _, m := range matches {
		if link, ok := resolveHref(e.logger, origin, m[1]); ok {
			links = append(links, link)
		}
	}
	return links
}

// resolveHref applies the rules shared by every extractor: fragment-only
// references are dropped, everything else is resolved against origin, and
// links that fail to resolve are skipped.
func resolveHref(logger *slog.Logger, origin model.Link, href string) (model.Link, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return model.Link{}, false
	}

	link, err := model.Resolve(origin, href)
	if err != nil {
		logger.Debug("link skipped", "href", href, "origin", origin.String(), "error", err)
		return model.Link{}, false
	}
	if link.Host == "" || link.Path == "" {
		logger.Debug("link skipped", "href", href, "origin", origin.String())
		return model.Link{}, false
	}
	return link, true
}
