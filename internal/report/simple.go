package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs plain text for the terminal.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *SimpleWriter) Write(s *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n                      CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	c := s.Crawl
	fmt.Fprintf(&sb, "Run ID:         %s\n", c.RunID)
	fmt.Fprintf(&sb, "Seed:           %s\n", c.Seed)
	fmt.Fprintf(&sb, "Depth:          %d\n", c.Depth)
	fmt.Fprintf(&sb, "Started:        %s\n", formatTime(c.Started))
	fmt.Fprintf(&sb, "Elapsed:        %s\n", c.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Status:         %s\n\n", s.status())

	sb.WriteString("CRAWL\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Fetches:          %d\n", s.TotalFetches())
	fmt.Fprintf(&sb, "  Pages fetched:    %d\n", c.PagesFetched)
	fmt.Fprintf(&sb, "  Pages indexed:    %d\n", c.PagesIndexed)
	fmt.Fprintf(&sb, "  Terms written:    %d\n", c.TermsWritten)
	fmt.Fprintf(&sb, "  Links queued:     %d\n", c.LinksQueued)
	fmt.Fprintf(&sb, "  Redirects:        %d (%d dropped)\n", c.Redirects, c.RedirectsDropped)
	fmt.Fprintf(&sb, "  Storage errors:   %d\n\n", c.StorageErrors)

	if outcomes := s.Outcomes(); len(outcomes) > 0 {
		sb.WriteString("OUTCOMES\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		for _, o := range outcomes {
			fmt.Fprintf(&sb, "  %-18s%d\n", o.Outcome+":", o.Count)
		}
		sb.WriteString("\n")
	}

	if s.Index != nil {
		sb.WriteString("INDEX\n")
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  Documents:        %d\n", s.Index.Documents)
		fmt.Fprintf(&sb, "  Terms:            %d\n", s.Index.Terms)
		fmt.Fprintf(&sb, "  Frequencies:      %d\n\n", s.Index.Frequencies)
	}

	return io.WriteString(w.output, sb.String())
}
