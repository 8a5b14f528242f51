package parser

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenizer counts word occurrences in a document.
type Tokenizer interface {
	Tokenize(markup string) map[string]int
}

var (
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	wordPattern = regexp.MustCompile(`[a-z]+`)
)

// Decoder converts fetched text to UTF-8. charset.Normalizer implements it.
type Decoder interface {
	Decode(text string) (string, error)
}

// PatternTokenizer strips tags with a regular expression, folds case and
// counts maximal runs of ASCII letters.
type PatternTokenizer struct {
	decoder Decoder
	lang    language.Tag
}

// TokenizerOption configures a PatternTokenizer.
type TokenizerOption func(*PatternTokenizer)

// WithDecoder makes the tokenizer decode its input to UTF-8 first.
// Use it when documents were normalized to a non-UTF-8 charset.
func WithDecoder(d Decoder) TokenizerOption {
	return func(t *PatternTokenizer) {
		t.decoder = d
	}
}

// WithLanguage selects the locale used for case folding.
func WithLanguage(tag language.Tag) TokenizerOption {
	return func(t *PatternTokenizer) {
		t.lang = tag
	}
}

// NewPatternTokenizer returns a tokenizer folding case under language.Und.
func NewPatternTokenizer(opts ...TokenizerOption) *PatternTokenizer {
	t := &PatternTokenizer{lang: language.Und}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize implements Tokenizer. Empty input yields an empty map.
func (t *PatternTokenizer) Tokenize(markup string) map[string]int {
	counts := make(map[string]int)
	if markup == "" {
		return counts
	}

	text := markup
	if t.decoder != nil {
		if decoded, err := t.decoder.Decode(markup); err == nil {
			text = decoded
		}
	}

	text = tagPattern.ReplaceAllString(text, " ")
	// A Caser keeps state between calls and cannot be shared across workers.
	text = cases.Lower(t.lang).String(text)

	for _, w := range wordPattern.FindAllString(text, -1) {
		counts[w]++
	}
	return counts
}
