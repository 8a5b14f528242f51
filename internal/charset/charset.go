// Package charset detects the character set of fetched documents and
// transcodes them into the single charset the indexer works in.
package charset

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// UTF8 is the name used when no charset is declared.
const UTF8 = "utf-8"

// Substitute replaces characters the output charset cannot represent.
const Substitute = '?'

// ErrUnknownCharset is returned for a charset name no encoding is registered for.
var ErrUnknownCharset = errors.New("unknown charset")

// metaCharset matches both <meta charset="x"> and
// <meta http-equiv="Content-Type" content="text/html; charset=x">.
var metaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-z0-9_.:-]+)`)

// Detect returns the declared charset of a document: the Content-Type
// charset parameter, else a meta declaration in the body, else UTF8.
// The returned name is lower-cased but not canonicalized.
func Detect(contentType string, body []byte) string {
	if name := fromContentType(contentType); name != "" {
		return name
	}
	if m := metaCharset.FindSubmatch(body); m != nil {
		return strings.ToLower(string(m[1]))
	}
	return UTF8
}

func fromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			return strings.ToLower(strings.TrimSpace(cs))
		}
		return ""
	}
	// Malformed header; look for the parameter by hand.
	lower := strings.ToLower(contentType)
	i := strings.Index(lower, "charset=")
	if i < 0 {
		return ""
	}
	cs := lower[i+len("charset="):]
	if j := strings.IndexAny(cs, "; "); j >= 0 {
		cs = cs[:j]
	}
	return strings.Trim(cs, `"'`)
}

// Lookup returns the encoding registered for name under the WHATWG
// encoding labels, and its canonical name.
func Lookup(name string) (encoding.Encoding, string, error) {
	enc, canonical := charset.Lookup(strings.TrimSpace(name))
	if enc == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, canonical, nil
}

// Normalizer converts documents into a fixed output charset.
type Normalizer struct {
	out     encoding.Encoding
	outName string
}

// NewNormalizer returns a Normalizer writing the named charset.
func NewNormalizer(output string) (*Normalizer, error) {
	enc, name, err := Lookup(output)
	if err != nil {
		return nil, err
	}
	return &Normalizer{out: enc, outName: name}, nil
}

// Windows1251 returns the default Normalizer.
func Windows1251() *Normalizer {
	return &Normalizer{out: charmap.Windows1251, outName: "windows-1251"}
}

// OutputName returns the canonical name of the output charset.
func (n *Normalizer) OutputName() string {
	return n.outName
}

// Normalize detects the charset of body and transcodes it into the output
// charset. An unknown declared charset falls back to UTF-8. Characters the
// output charset cannot represent are replaced by Substitute.
// The detected charset name is returned alongside the text.
func (n *Normalizer) Normalize(contentType string, body []byte) (string, string, error) {
	detected := Detect(contentType, body)
	src, name, err := Lookup(detected)
	if err != nil {
		src, name = unicode.UTF8, UTF8
	}

	decoded, err := src.NewDecoder().Bytes(body)
	if err != nil {
		return "", name, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	check := n.out.NewEncoder()
	substitute := runes.Map(func(r rune) rune {
		if r < utf8.RuneSelf {
			return r
		}
		if _, err := check.String(string(r)); err != nil {
			return Substitute
		}
		return r
	})
	enc := transform.Chain(substitute, encoding.ReplaceUnsupported(n.out.NewEncoder()))
	out, _, err := transform.Bytes(enc, decoded)
	if err != nil {
		return "", name, fmt.Errorf("failed to encode %s: %w", n.outName, err)
	}
	return string(out), name, nil
}

// Decode converts text in the output charset back to UTF-8.
func (n *Normalizer) Decode(text string) (string, error) {
	s, err := n.out.NewDecoder().String(text)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", n.outName, err)
	}
	return s, nil
}
