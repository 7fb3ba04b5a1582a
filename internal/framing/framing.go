// Package framing turns a raw byte-stream transport.Conn into whole DNS
// message boundaries: passthrough for UDP, RFC 1035 §4.2.2 2-byte
// length-prefixing for TCP.
package framing

// Framer delivers and accepts whole DNS messages over one connection.
// ReadMessage is serialised internally so concurrent readers cannot
// interleave frames; WriteMessage is serialised so header+payload appear
// atomically on the wire relative to concurrent writers.
type Framer interface {
	ReadMessage() ([]byte, error)
	WriteMessage(msg []byte) error
	Close() error
}

// MaxUDPMessageSize is the largest payload a UDP datagram can carry before
// write is treated as a permanent error (RFC 1035 §4.2.1, practical UDP
// datagram ceiling).
const MaxUDPMessageSize = 65527
