package listener

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/hydraforward/hydraforward/internal/ferrors"
	"github.com/hydraforward/hydraforward/internal/framing"
	"github.com/hydraforward/hydraforward/internal/transport"
)

// connectionIdleTimeout bounds how long a TCP client connection may sit
// with no query in flight before the listener closes it.
const connectionIdleTimeout = 30 * time.Second

// maxQueriesPerConnection caps pipelined queries on one connection so a
// single client cannot hold a handler goroutine forever.
const maxQueriesPerConnection = 100

// TCPListener accepts DNS-over-TCP connections, reads length-prefixed
// queries per RFC 1035 §4.2.2, and forwards each to an Answerer.
//
// Grounded on the SO_REUSEPORT multi-listener, one-goroutine-per-connection
// pattern: one accept loop per CPU core, one handler goroutine per
// connection, pipelined queries, idle deadlines on the socket.
type TCPListener struct {
	Logger    *slog.Logger
	Forwarder Answerer

	listeners []net.Listener
	wg        sync.WaitGroup
}

// Run starts one SO_REUSEPORT TCP listener per CPU core and blocks until
// ctx is cancelled.
func (l *TCPListener) Run(ctx context.Context, addr string) error {
	socketCount := runtime.NumCPU()
	l.listeners = make([]net.Listener, 0, socketCount)

	for range socketCount {
		ln, err := transport.ListenTCPReusePort(ctx, addr)
		if err != nil {
			for _, existing := range l.listeners {
				_ = existing.Close()
			}
			return err
		}
		l.listeners = append(l.listeners, ln)

		listener := ln
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.acceptLoop(ctx, listener)
		}()
	}

	<-ctx.Done()
	return l.Stop(5 * time.Second)
}

func (l *TCPListener) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		conn := c
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handleConnection(ctx, conn)
		}()
	}
}

func (l *TCPListener) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(connectionIdleTimeout))
	framer := framing.NewTCPFramer(conn)
	defer framer.Close()

	for range maxQueriesPerConnection {
		if ctx.Err() != nil {
			return
		}

		msg, err := framer.ReadMessage()
		if err != nil {
			if l.Logger != nil && !isBenignClose(err) {
				l.Logger.Debug("tcp listener read failed", "error", err)
			}
			return
		}

		_ = conn.SetDeadline(time.Now().Add(connectionIdleTimeout))

		if l.Forwarder == nil {
			return
		}

		resp, ok := l.Forwarder.Answer(ctx, msg)
		if !ok || len(resp) == 0 {
			continue
		}

		if err := framer.WriteMessage(resp); err != nil {
			return
		}
	}
}

func isBenignClose(err error) bool {
	return errors.Is(err, ferrors.ErrIO) || errors.Is(err, ferrors.ErrFraming)
}

// Stop closes every listener and waits up to timeout for connections to
// drain.
func (l *TCPListener) Stop(timeout time.Duration) error {
	for _, ln := range l.listeners {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("tcp listener: timeout waiting for connections")
	}
}
