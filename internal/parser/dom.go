package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/spidersearch/internal/model"
)

// DOMExtractor extracts anchors from a parsed document tree.
// It applies the same resolution rules as PatternExtractor.
type DOMExtractor struct {
	logger *slog.Logger
}

// NewDOMExtractor returns a DOMExtractor. A nil logger uses slog.Default().
func NewDOMExtractor(logger *slog.Logger) *DOMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOMExtractor{logger: logger}
}

// Extract implements LinkExtractor.
func (e *DOMExtractor) Extract(markup string, origin model.Link) []model.Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Debug("failed to parse markup", "origin", origin.String(), "error", err)
		return nil
	}

	var links []model.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if link, ok := resolveHref(e.logger, origin, href); ok {
			links = append(links, link)
		}
	})
	return links
}
