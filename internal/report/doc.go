// Package report renders the summary of a crawl run and the results of a
// search for people and tools.
//
// Writers implement the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown with tables and an outcome pie chart
//   - JSONWriter: structured JSON for scripts
//
// WriteResults renders a ranked result list in any of the formats.
package report
