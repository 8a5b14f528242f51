package search

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormKey is the only accepted form field.
const FormKey = "search"

var (
	// ErrInvalidRequest is returned for a body that is not key=value.
	ErrInvalidRequest = errors.New("invalid request format")

	// ErrInvalidKey is returned when the field is not FormKey.
	ErrInvalidKey = errors.New("invalid search key")

	// ErrEmptyQuery is returned when no term survives parsing.
	ErrEmptyQuery = errors.New("empty search attempt")
)

var nonTerm = regexp.MustCompile(`[^a-z+ ]+`)

// ParseBody parses an urlencoded body holding a single search field.
// Only the first '=' separates the key from the value.
func ParseBody(body string) ([]string, error) {
	key, value, ok := strings.Cut(body, "=")
	if !ok {
		return nil, ErrInvalidRequest
	}
	if key != FormKey {
		return nil, ErrInvalidKey
	}
	return ParsePhrase(value)
}

// ParsePhrase decodes an urlencoded phrase, lower-cases it, drops every
// character outside a-z and splits it into terms at '+' and spaces.
func ParsePhrase(raw string) ([]string, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	folded := cases.Lower(language.Und).String(decoded)
	cleaned := nonTerm.ReplaceAllString(folded, "")

	terms := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '+' || r == ' '
	})
	if len(terms) == 0 {
		return nil, ErrEmptyQuery
	}
	return terms, nil
}
