package transport

import (
	"context"
	"io"
	"net"
	"sort"
	"sync"
	"time"
)

// FakeClock is a manually-advanced Clock for deterministic tests of the
// idle-disconnect and engine-timeout suspension points. Calling Advance
// fires every pending After/AfterFunc whose deadline has passed, in
// deadline order.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
	fn       func()
	fired    bool
	stopped  bool
}

func (w *fakeWaiter) Stop() bool {
	w.stopped = true
	return !w.fired
}

func (w *fakeWaiter) Reset(d time.Duration) bool {
	fired := w.fired
	w.fired = false
	w.stopped = false
	return !fired
}

// NewFakeClock returns a FakeClock starting at the given time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &fakeWaiter{deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	return w.ch
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &fakeWaiter{deadline: c.now.Add(d), fn: f}
	c.waiters = append(c.waiters, w)
	return w
}

// Advance moves the clock forward by d and fires any waiter whose deadline
// has now passed.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var fire []*fakeWaiter
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.stopped && !w.deadline.After(now) {
			w.fired = true
			fire = append(fire, w)
		} else if !w.stopped {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	sort.SliceStable(fire, func(i, j int) bool { return fire[i].deadline.Before(fire[j].deadline) })

	for _, w := range fire {
		if w.ch != nil {
			w.ch <- now
		}
		if w.fn != nil {
			w.fn()
		}
	}
}

// pipeConn adapts a net.Conn half of an in-memory pipe to the Conn
// interface; RemoteAddr is supplied separately since net.Pipe endpoints
// have no real address.
type pipeConn struct {
	net.Conn
	remote net.Addr
}

func (p *pipeConn) RemoteAddr() net.Addr { return p.remote }

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// FakeDialer dials in-memory net.Pipe connections against a registry of
// addresses pre-populated by tests via Listen. Each successful Dial spawns
// the registered handler on the server side of a fresh pipe and hands the
// client side back to the caller.
type FakeDialer struct {
	mu      sync.Mutex
	servers map[string]func(net.Conn)
}

// NewFakeDialer returns an empty FakeDialer; register server behavior with
// Listen before dialing.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{servers: make(map[string]func(net.Conn))}
}

// Listen registers handler to run, in its own goroutine, on the server
// side of every connection a client Dials to address.
func (d *FakeDialer) Listen(address string, handler func(net.Conn)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.servers[address] = handler
}

// Unlisten removes a prior Listen registration, so subsequent dials to
// address fail as if the peer is unreachable.
func (d *FakeDialer) Unlisten(address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.servers, address)
}

func (d *FakeDialer) Dial(ctx context.Context, network, address string) (Conn, error) {
	d.mu.Lock()
	handler := d.servers[address]
	d.mu.Unlock()
	if handler == nil {
		return nil, io.ErrClosedPipe
	}
	client, server := net.Pipe()
	go handler(server)
	return &pipeConn{Conn: client, remote: fakeAddr(address)}, nil
}
