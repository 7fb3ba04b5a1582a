// Package transport abstracts the byte-stream and clock primitives the
// forwarding core depends on, so the upstream client and listeners can be
// exercised against an in-memory transport and a deterministic clock in
// tests instead of real sockets and wall-clock sleeps.
package transport

import (
	"context"
	"net"
	"time"
)

// Conn is an opaque byte-stream connection: UDP (already associated with a
// remote peer) or TCP.
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	RemoteAddr() net.Addr
}

// Dialer opens a Conn to an upstream address. network is "udp" or "tcp".
type Dialer interface {
	Dial(ctx context.Context, network, address string) (Conn, error)
}

// Timer is the subset of *time.Timer the idle-disconnect and engine
// timeout logic needs.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Clock abstracts time so suspension points ((c) and (e)/(f) in the
// concurrency model) can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the real wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                    { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NetDialer is the real Dialer, backed by net.Dialer.
type NetDialer struct {
	net.Dialer
}

func (d *NetDialer) Dial(ctx context.Context, network, address string) (Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
