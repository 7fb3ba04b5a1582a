// Package upstream implements the persistent, multiplexed connection to a
// single upstream nameserver: one live transport connection, a dispatcher
// goroutine demultiplexing responses by transaction id, an idle-disconnect
// timer, and the retry-once-on-broken-pipe write path.
package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hydraforward/hydraforward/internal/dnswire"
	"github.com/hydraforward/hydraforward/internal/ferrors"
	"github.com/hydraforward/hydraforward/internal/framing"
	"github.com/hydraforward/hydraforward/internal/idalloc"
	"github.com/hydraforward/hydraforward/internal/transport"
)

// IdleTimeout is how long a connection may sit unused before Client tears
// it down on its own.
const IdleTimeout = 30 * time.Second

// errClosedConn is delivered to every pending waiter when the connection
// backing it is torn down, whether by disconnect, idle expiry, a failed
// write, or a dispatcher read failure.
var errClosedConn = fmt.Errorf("%w: connection to server was closed", ferrors.ErrClosed)

type rpcResult struct {
	buf []byte
	err error
}

// Client is the per-upstream connection state described in §3/§4.4: a
// possibly-absent connection, a pending-request table keyed by the
// upstream-scoped transaction id, and the free-id allocator that table
// draws from.
type Client struct {
	address string
	network string
	dialer  transport.Dialer
	clock   transport.Clock
	logger  *slog.Logger

	mu         sync.Mutex
	conn       framing.Framer
	idleTimer  transport.Timer
	generation uint64

	pendingMu sync.Mutex
	pending   map[uint16]chan rpcResult

	ids *idalloc.Pool
}

// NewClient constructs client state for address without opening a socket.
// network is "udp" or "tcp"; it governs both the transport dial and the
// framing applied to it.
func NewClient(address, network string, dialer transport.Dialer, clock transport.Clock, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		address: address,
		network: network,
		dialer:  dialer,
		clock:   clock,
		logger:  logger,
		pending: make(map[uint16]chan rpcResult),
		ids:     idalloc.New(),
	}
}

// RPC sends exactly one query and returns exactly one response, remapping
// the transaction id on the way out and back in (§4.4.2, §6).
func (c *Client) RPC(ctx context.Context, queryBuf []byte) ([]byte, error) {
	clientID, err := dnswire.ValidateForForwarding(queryBuf)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse request: %v", ferrors.ErrParse, err)
	}

	id, waiter, err := c.registerNewWaiter(ctx)
	if err != nil {
		return nil, err
	}
	dnswire.WriteTransactionID(queryBuf, id)

	buf, err := c.sendAndAwait(ctx, id, waiter, queryBuf)
	if err != nil {
		return nil, err
	}

	dnswire.WriteTransactionID(buf, clientID)
	return buf, nil
}

// sendAndAwait implements steps 5-7 of §4.4.2: write, retry exactly once
// on a fresh connection and a fresh id/slot if the first write fails, then
// await the response.
func (c *Client) sendAndAwait(ctx context.Context, id uint16, waiter chan rpcResult, queryBuf []byte) ([]byte, error) {
	framer, gen, err := c.getConn(ctx)
	if err != nil {
		c.dropWaiter(id)
		return nil, fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}

	if writeErr := framer.WriteMessage(queryBuf); writeErr == nil {
		return c.await(ctx, id, waiter)
	}

	// First write failed: tear down this connection (this fails id's
	// waiter with "closed" and reclaims id for us), then retry with a
	// fresh id and slot on a freshly established connection.
	c.disconnectGen(gen, errClosedConn)

	newID, newWaiter, err := c.registerNewWaiter(ctx)
	if err != nil {
		return nil, err
	}
	dnswire.WriteTransactionID(queryBuf, newID)

	framer2, _, err := c.getConn(ctx)
	if err != nil {
		c.dropWaiter(newID)
		return nil, fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}
	if writeErr := framer2.WriteMessage(queryBuf); writeErr != nil {
		c.dropWaiter(newID)
		return nil, fmt.Errorf("%w: %v", ferrors.ErrIO, writeErr)
	}

	return c.await(ctx, newID, newWaiter)
}

func (c *Client) await(ctx context.Context, id uint16, waiter chan rpcResult) ([]byte, error) {
	select {
	case res := <-waiter:
		if res.err != nil {
			return nil, res.err
		}
		return res.buf, nil
	case <-ctx.Done():
		c.dropWaiter(id)
		return nil, fmt.Errorf("%w: %v", ferrors.ErrTimeout, ctx.Err())
	}
}

// getConn returns the live connection, establishing one if necessary
// (§4.4.1). Dialing happens without the client mutex held; if two callers
// race to connect, the loser discards its own dial and adopts the
// winner's connection.
func (c *Client) getConn(ctx context.Context) (framing.Framer, uint64, error) {
	c.mu.Lock()
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if c.conn != nil {
		framer, gen := c.conn, c.generation
		c.armIdleLocked(gen)
		c.mu.Unlock()
		return framer, gen, nil
	}
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx, c.network, c.address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}
	framer := newFramer(c.network, conn)

	c.mu.Lock()
	if c.conn != nil {
		// Another goroutine won the race; use its connection instead.
		winner, gen := c.conn, c.generation
		c.armIdleLocked(gen)
		c.mu.Unlock()
		_ = framer.Close()
		return winner, gen, nil
	}
	c.conn = framer
	c.generation++
	gen := c.generation
	c.armIdleLocked(gen)
	c.mu.Unlock()

	go c.dispatch(framer, gen)
	c.logger.Info("upstream connected", "address", c.address, "network", c.network)
	return framer, gen, nil
}

// armIdleLocked schedules a fresh idle-disconnect and must be called with
// c.mu held.
func (c *Client) armIdleLocked(gen uint64) {
	c.idleTimer = c.clock.AfterFunc(IdleTimeout, func() {
		c.disconnectGen(gen, errClosedConn)
	})
}

// newFramer adapts a dialed transport.Conn to the framing appropriate for
// network.
func newFramer(network string, conn transport.Conn) framing.Framer {
	if network == "tcp" {
		return framing.NewTCPFramer(conn)
	}
	return framing.NewUDPFramer(conn)
}

// Disconnect terminates the current connection, if any, and fails every
// pending waiter (§4.4.4). Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.disconnectGen(gen, errClosedConn)
}

// disconnectGen tears down the connection belonging to generation gen. A
// call for a stale generation (one already superseded by a reconnect) is
// a no-op, which is what lets the idle timer and a racing write-failure
// teardown coexist safely.
func (c *Client) disconnectGen(gen uint64, cause error) {
	c.mu.Lock()
	if c.conn == nil || c.generation != gen {
		c.mu.Unlock()
		return
	}
	framer := c.conn
	c.conn = nil
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
	c.mu.Unlock()

	c.pendingMu.Lock()
	snapshot := c.pending
	c.pending = make(map[uint16]chan rpcResult)
	c.pendingMu.Unlock()

	for id, ch := range snapshot {
		c.ids.Put(id)
		ch <- rpcResult{err: cause}
	}

	_ = framer.Close()
}

// dispatch is the per-connection task that reads framed messages off conn
// and delivers each to the waiter registered under its transaction id
// (§4.4.3). A parse failure terminates the connection; a stray id is
// logged and dropped without affecting the connection.
func (c *Client) dispatch(conn framing.Framer, gen uint64) {
	for {
		buf, err := conn.ReadMessage()
		if err != nil {
			c.disconnectGen(gen, errClosedConn)
			return
		}

		id, err := dnswire.ReadTransactionID(buf)
		if err != nil {
			c.logger.Warn("dropping connection after malformed response", "address", c.address, "error", err)
			c.disconnectGen(gen, fmt.Errorf("%w: %v", ferrors.ErrParse, err))
			return
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()

		if !ok {
			c.logger.Warn("stray response id, dropping", "address", c.address, "id", id)
			continue
		}

		c.ids.Put(id)
		ch <- rpcResult{buf: buf}
	}
}

func (c *Client) registerNewWaiter(ctx context.Context) (uint16, chan rpcResult, error) {
	id, err := c.ids.Get(ctx)
	if err != nil {
		return 0, nil, err
	}
	ch := make(chan rpcResult, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	return id, ch, nil
}

// dropWaiter removes id's pending entry and returns it to the allocator,
// if it is still present. It is safe to call on an id that the dispatcher
// or a disconnect has already resolved and removed.
func (c *Client) dropWaiter(id uint16) {
	c.pendingMu.Lock()
	_, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if ok {
		c.ids.Put(id)
	}
}
