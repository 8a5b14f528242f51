package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"
)

// noResults is shown when a search matches nothing.
const noResults = "Could not find pages with this content!"

// Results is a ranked search result.
type Results struct {
	Terms []string `json:"terms"`
	URLs  []string `json:"urls"`
}

// WriteResults renders r in format.
func WriteResults(output io.Writer, format Format, r Results) error {
	if r.URLs == nil {
		r.URLs = []string{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMarkdown:
		return writeMarkdownResults(output, r)
	case FormatText, "":
		if len(r.URLs) == 0 {
			_, err := fmt.Fprintln(output, noResults)
			return err
		}
		for i, u := range r.URLs {
			if _, err := fmt.Fprintf(output, "%2d. %s\n", i+1, u); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown result format %q", format)
	}
}

func writeMarkdownResults(output io.Writer, r Results) error {
	md := markdown.NewMarkdown(output)
	md.H2("Results for `" + strings.Join(r.Terms, " ") + "`")
	md.PlainText("")

	if len(r.URLs) == 0 {
		md.Note(noResults)
		return md.Build()
	}

	links := make([]string, len(r.URLs))
	for i, u := range r.URLs {
		links[i] = fmt.Sprintf("[%s](%s)", u, u)
	}
	md.OrderedList(links...)
	return md.Build()
}
