// Package dnswire implements just enough of the DNS wire format (RFC 1035)
// for the forwarding engine to do its job: read the transaction id off any
// message, decode the first question of a query for zone routing, and
// round-trip domain names (including compression pointers) well enough to
// do so. It deliberately does not model resource records, response
// sections, or any RR type beyond what routing needs — full packet
// decode/encode is out of scope for the forwarding core (see spec §1).
package dnswire

import "errors"

// ErrWire is the sentinel wrapped by every wire-format decoding error in
// this package.
var ErrWire = errors.New("dns wire error")
