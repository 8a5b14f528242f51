package fetcher

import "errors"

// Fetch failure errors, carried in Result.Err.
var (
	// ErrTransport wraps connection, TLS, timeout and read failures.
	ErrTransport = errors.New("transport error")

	// ErrClientError is reported for 4xx responses.
	ErrClientError = errors.New("client error")

	// ErrServerError is reported for 5xx responses.
	ErrServerError = errors.New("server error")

	// ErrUnhandledStatus is reported for statuses the crawler does not act on (1xx, 204, 303, 304, ...).
	ErrUnhandledStatus = errors.New("unhandled status")

	// ErrNonText is reported when a 200 body contains a zero byte.
	ErrNonText = errors.New("not a text document")

	// ErrBadLocation is reported for a redirect without a usable Location header.
	ErrBadLocation = errors.New("redirect without usable Location")

	// ErrInvalidLink is reported when asked to fetch a link that failed to parse.
	ErrInvalidLink = errors.New("invalid link")
)

// Outcome classifies the result of a fetch.
type Outcome int

const (
	// OutcomeOK means Text holds the normalized document.
	OutcomeOK Outcome = iota

	// OutcomeNonText means the body was binary and was discarded.
	OutcomeNonText

	// OutcomeRedirect means Location holds the link to fetch instead.
	OutcomeRedirect

	// OutcomeClientError means the server answered 4xx.
	OutcomeClientError

	// OutcomeServerError means the server answered 5xx.
	OutcomeServerError

	// OutcomeUnhandledStatus means any other non-200 status.
	OutcomeUnhandledStatus

	// OutcomeTransportError means no usable response was received.
	OutcomeTransportError
)

// String returns a short label, also used as a metrics label value.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNonText:
		return "non_text"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	case OutcomeUnhandledStatus:
		return "unhandled_status"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for the outcome, or nil for OK and Redirect.
func (o Outcome) Err() error {
	switch o {
	case OutcomeOK, OutcomeRedirect:
		return nil
	case OutcomeNonText:
		return ErrNonText
	case OutcomeClientError:
		return ErrClientError
	case OutcomeServerError:
		return ErrServerError
	case OutcomeUnhandledStatus:
		return ErrUnhandledStatus
	case OutcomeTransportError:
		return ErrTransport
	default:
		return errors.New("unknown fetch outcome")
	}
}
