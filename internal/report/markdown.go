package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeCrawl(md, s)
	w.writeOutcomes(md, s)
	w.writeIndex(md, s)
	w.writeFooter(md, s)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	c := s.Crawl
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + c.RunID + "`"},
			{"Seed", "`" + c.Seed + "`"},
			{"Depth", strconv.Itoa(c.Depth)},
			{"Started", formatTime(c.Started)},
			{"Elapsed", c.Elapsed().Round(time.Millisecond).String()},
			{"Status", s.status()},
		},
	})
	md.PlainText("")

	switch {
	case s.Error != "":
		md.Warningf("The crawl stopped early: %s. Counters cover the pages processed until then.", s.Error)
	case c.PagesIndexed == 0:
		md.Caution("No page was indexed. Check the seed and the fetch outcomes below.")
	case c.StorageErrors > 0:
		md.Importantf("%d index write(s) failed. The affected pages or words are missing from the index.", c.StorageErrors)
	default:
		md.Tip("Every fetched page was indexed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, s *Summary) {
	c := s.Crawl
	md.H2("Crawl")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Fetches", itoa(s.TotalFetches())},
			{"Pages fetched", itoa(c.PagesFetched)},
			{"Pages indexed", itoa(c.PagesIndexed)},
			{"Terms written", itoa(c.TermsWritten)},
			{"Links queued", itoa(c.LinksQueued)},
			{"Redirects", itoa(c.Redirects)},
			{"Redirects dropped", itoa(c.RedirectsDropped)},
			{"Storage errors", itoa(c.StorageErrors)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, s *Summary) {
	outcomes := s.Outcomes()
	if len(outcomes) == 0 {
		return
	}

	md.H2("Fetch Outcomes")
	md.PlainText("")

	rows := make([][]string, len(outcomes))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch outcomes"),
		piechart.WithShowData(true),
	)
	for i, o := range outcomes {
		rows[i] = []string{o.Outcome, itoa(o.Count)}
		chart.LabelAndIntValue(o.Outcome, uint64(o.Count)) //nolint:gosec // counts are never negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeIndex(md *markdown.Markdown, s *Summary) {
	md.H2("Index")
	md.PlainText("")

	if s.Index == nil {
		md.PlainText("Index totals are unavailable.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Relation", "Rows"},
		Rows: [][]string{
			{"documents", itoa(s.Index.Documents)},
			{"terms", itoa(s.Index.Terms)},
			{"frequencies", itoa(s.Index.Frequencies)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, s *Summary) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by spidersearch %s*", s.Version)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
