// Package apperr defines the error taxonomy raised by ddbrouter's own
// components, as distinct from errors that flow through untouched from the
// underlying transport or the DynamoDB-compatible server.
package apperr

import "fmt"

// Kind classifies an error into one of the categories spec.md §7 names.
type Kind string

const (
	// Configuration covers errors raised synchronously at client
	// construction: an invalid header whitelist, an unreachable scope
	// fallback chain, and similar build-time mistakes.
	Configuration Kind = "CONFIGURATION"
	// Routing covers a query plan that is empty at request time: no live
	// nodes and no seeds to fall back to.
	Routing Kind = "ROUTING"
	// Compression covers I/O failures while gzip-compressing a request
	// body; per §7 these are fatal to the request they occur on.
	Compression Kind = "COMPRESSION"
)

// Error is ddbrouter's own error type. Op names the call that raised it
// (e.g. "config.Validate", "routing.rewriteDestination"), the way
// *fs.PathError names the failing syscall rather than flattening it into
// the message text. Err is the underlying cause and is never stringified
// away, so errors.Is/errors.As still reach it through Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf walks err's Unwrap chain for the nearest *Error and reports its
// Kind, so callers can branch on category without caring which Op raised
// it or how deeply it is wrapped.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

// NewConfiguration builds a Configuration error raised by op, wrapping err.
func NewConfiguration(op string, err error) error {
	return &Error{Kind: Configuration, Op: op, Err: err}
}

// NewRouting builds a Routing error raised by op, wrapping err.
func NewRouting(op string, err error) error {
	return &Error{Kind: Routing, Op: op, Err: err}
}

// NewCompression builds a Compression error raised by op, wrapping the I/O
// failure encountered while gzip-compressing a request body.
func NewCompression(op string, err error) error {
	return &Error{Kind: Compression, Op: op, Err: err}
}
