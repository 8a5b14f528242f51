package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Link errors. All of them describe a ParseError: the offending link is
// dropped and the caller continues with the rest of its input.
var (
	// ErrUnknownProtocol is returned when the link text does not start with
	// http:// or https://.
	ErrUnknownProtocol = errors.New("unknown protocol")
	// ErrEmptyHost is returned when the link has no host part.
	ErrEmptyHost = errors.New("link has empty host")
	// ErrEmptyLink is returned when the link text is blank.
	ErrEmptyLink = errors.New("link is empty")
	// ErrMalformedLink is returned when a reference cannot be parsed at all.
	ErrMalformedLink = errors.New("malformed link")
)

// Protocol is the transport a Link is fetched over.
type Protocol int

const (
	// ProtocolUnknown marks a link that failed to parse.
	ProtocolUnknown Protocol = iota
	// ProtocolHTTP is plain-text HTTP.
	ProtocolHTTP
	// ProtocolHTTPS is HTTP over TLS.
	ProtocolHTTPS
)

const (
	httpPrefix  = "http://"
	httpsPrefix = "https://"
)

// String returns the URL scheme of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolHTTP:
		return "http"
	case ProtocolHTTPS:
		return "https"
	default:
		return "unknown"
	}
}

// Link is an immutable (protocol, host, path) triple.
// Path always starts with "/" and may carry a query string.
type Link struct {
	Protocol Protocol
	Host     string
	Path     string
}

// Parse parses absolute link text.
// The host is everything up to the first "/" (or "?") after the scheme;
// the remainder is the path, which defaults to "/". Fragments are dropped.
func Parse(text string) (Link, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Link{}, ErrEmptyLink
	}

	var (
		proto Protocol
		rest  string
	)
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, httpsPrefix):
		proto = ProtocolHTTPS
		rest = text[len(httpsPrefix):]
	case strings.HasPrefix(lower, httpPrefix):
		proto = ProtocolHTTP
		rest = text[len(httpPrefix):]
	default:
		return Link{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, text)
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	host, path := rest, "/"
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		host = rest[:i]
		path = rest[i:]
		if path[0] == '?' {
			path = "/" + path
		}
	}
	if host == "" {
		return Link{}, fmt.Errorf("%w: %q", ErrEmptyHost, text)
	}

	return Link{Protocol: proto, Host: host, Path: path}, nil
}

// MustParse is like Parse but panics on error. It is intended for tests
// and package-level values.
func MustParse(text string) Link {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

// Resolve resolves href against origin.
//
// Absolute http(s) references are parsed directly and scheme-relative
// references ("//host/path") inherit the origin protocol. Anything else
// becomes the path on the origin host as written, not relative to the
// origin's directory: "about" on http://site.com/dir/page.html is
// http://site.com/about. References with another scheme (mailto:,
// javascript:, ftp://) fail with ErrUnknownProtocol.
func Resolve(origin Link, href string) (Link, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return Link{}, ErrEmptyLink
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %q: %v", ErrMalformedLink, href, err)
	}
	if ref.IsAbs() || !origin.Valid() {
		return Parse(href)
	}
	if strings.HasPrefix(href, "//") {
		return Parse(origin.Protocol.String() + ":" + href)
	}
	return Parse(origin.Protocol.String() + "://" + origin.Host + "/" + strings.TrimPrefix(href, "/"))
}

// Valid reports whether the link has a known protocol and a host.
func (l Link) Valid() bool {
	return l.Protocol != ProtocolUnknown && l.Host != "" && l.Path != ""
}

// String renders the canonical text form protocol://host/path.
func (l Link) String() string {
	return l.Protocol.String() + "://" + l.Host + l.Path
}
