package cms

import "fmt"

// Kind classifies content API failures.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindStatus
	KindNotFound
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind       Kind
	Op         string // operation, e.g. "query", "fetch page", "get by uid"
	URL        string // request URL, without the access token
	StatusCode int    // set for KindStatus
	Err        error  // underlying cause
}

func (e *Error) Error() string {
	msg := "cms: " + e.Op + ": " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, cms.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrNetwork   = &Error{Kind: KindNetwork}
	ErrStatus    = &Error{Kind: KindStatus}
	ErrNotFound  = &Error{Kind: KindNotFound}
	ErrMalformed = &Error{Kind: KindMalformed}
)

func malformed(op, url string, err error) *Error {
	return &Error{Kind: KindMalformed, Op: op, URL: url, Err: err}
}
