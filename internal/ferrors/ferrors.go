// Package ferrors defines the error taxonomy shared across the forwarding
// engine. Every error that crosses a component boundary wraps one of the
// sentinels below so callers can classify failures with errors.Is instead
// of matching on strings.
package ferrors

import "errors"

var (
	// ErrParse means a DNS message could not be decoded sufficiently to
	// act on (missing header, truncated question, bad name encoding).
	ErrParse = errors.New("parse")

	// ErrFraming means the TCP length-prefix framing was violated: a
	// short read on either the length or the body, or an oversized
	// message on write.
	ErrFraming = errors.New("framing")

	// ErrIO means a transport-level read, write, or connect failed.
	ErrIO = errors.New("io")

	// ErrClosed means the connection backing a pending request was torn
	// down before a response arrived.
	ErrClosed = errors.New("closed")

	// ErrTimeout means a wait (for a free id or for an upstream response)
	// was abandoned because its context was cancelled or expired, as
	// happens to losing upstream RPCs once the engine's race is decided.
	ErrTimeout = errors.New("timeout")
)
