// Package listener implements the downstream DNS listeners: UDP and TCP
// servers that accept client queries and hand them to an engine.Forwarder,
// writing back whatever it returns. Neither listener ever synthesizes an
// answer itself — a dropped query (engine.Forwarder.Answer returning
// ok=false) is simply not responded to, matching §4.5/§4.6's "silently
// drop" behavior.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/hydraforward/hydraforward/internal/pool"
	"github.com/hydraforward/hydraforward/internal/transport"
)

// maxIncomingUDPMessageSize bounds the buffer used to read an inbound UDP
// query; anything larger than a DNS message over UDP can ever be is
// rejected by the kernel/NIC long before this matters in practice.
const maxIncomingUDPMessageSize = 65527

// DefaultWorkersPerSocket is the default number of worker goroutines per
// UDP socket.
const DefaultWorkersPerSocket = 1024

var udpBufferPool = pool.New(func() *[]byte {
	buf := make([]byte, maxIncomingUDPMessageSize)
	return &buf
})

// Answerer is the subset of engine.Forwarder a listener depends on.
type Answerer interface {
	Answer(ctx context.Context, buffer []byte) ([]byte, bool)
}

// UDPListener accepts DNS-over-UDP queries and forwards each to an
// Answerer, writing back the winning upstream reply verbatim.
//
// Grounded on the fixed-worker-pool, buffer-pooled, non-blocking-receive
// design of a conventional high-throughput UDP DNS server: one receiver
// goroutine reads packets off the socket and hands them, without
// blocking, to a bounded pool of worker goroutines that call the
// forwarder and write the response back.
type UDPListener struct {
	Logger           *slog.Logger
	Forwarder        Answerer
	WorkersPerSocket int

	conns []*net.UDPConn
	wg    sync.WaitGroup
}

type udpPacket struct {
	bufPtr *[]byte
	n      int
	peer   *net.UDPAddr
}

// Run starts one SO_REUSEPORT UDP socket per CPU core, each with its own
// worker pool, and blocks until ctx is cancelled.
func (l *UDPListener) Run(ctx context.Context, addr string) error {
	if l.WorkersPerSocket <= 0 {
		l.WorkersPerSocket = DefaultWorkersPerSocket
	}

	socketCount := runtime.NumCPU()
	l.conns = make([]*net.UDPConn, 0, socketCount)

	for range socketCount {
		conn, err := transport.ListenUDPReusePort(ctx, addr)
		if err != nil {
			for _, c := range l.conns {
				_ = c.Close()
			}
			return err
		}
		l.conns = append(l.conns, conn)

		packetCh := make(chan udpPacket, l.WorkersPerSocket*2)
		c := conn
		ch := packetCh

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.recvLoop(ctx, c, ch)
		}()
		for range l.WorkersPerSocket {
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				l.workerLoop(ctx, c, ch)
			}()
		}
	}

	<-ctx.Done()
	return l.Stop(5 * time.Second)
}

// RunOnConn runs the listener on an already-bound UDP socket; useful for
// tests that manage the socket themselves.
func (l *UDPListener) RunOnConn(ctx context.Context, conn *net.UDPConn) {
	if l.WorkersPerSocket <= 0 {
		l.WorkersPerSocket = DefaultWorkersPerSocket
	}
	l.conns = []*net.UDPConn{conn}
	packetCh := make(chan udpPacket, l.WorkersPerSocket)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.recvLoop(ctx, conn, packetCh)
	}()
	for range l.WorkersPerSocket {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.workerLoop(ctx, conn, packetCh)
		}()
	}
	<-ctx.Done()
}

func (l *UDPListener) recvLoop(ctx context.Context, conn *net.UDPConn, out chan<- udpPacket) {
	for {
		bufPtr := udpBufferPool.Get()
		buf := *bufPtr

		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			udpBufferPool.Put(bufPtr)
			return
		}

		select {
		case out <- udpPacket{bufPtr, n, peer}:
		default:
			udpBufferPool.Put(bufPtr)
			if l.Logger != nil {
				l.Logger.Debug("udp listener dropped packet, workers busy", "peer", peer.String())
			}
		}
	}
}

func (l *UDPListener) workerLoop(ctx context.Context, conn *net.UDPConn, in <-chan udpPacket) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-in:
			if !ok {
				return
			}
			l.handlePacket(ctx, conn, p)
		}
	}
}

func (l *UDPListener) handlePacket(ctx context.Context, conn *net.UDPConn, p udpPacket) {
	defer udpBufferPool.Put(p.bufPtr)

	if l.Forwarder == nil {
		return
	}

	query := append([]byte(nil), (*p.bufPtr)[:p.n]...)
	resp, ok := l.Forwarder.Answer(ctx, query)
	if !ok || len(resp) == 0 {
		return
	}
	_, _ = conn.WriteToUDP(resp, p.peer)
}

// Stop closes every socket and waits up to timeout for in-flight workers
// to drain.
func (l *UDPListener) Stop(timeout time.Duration) error {
	for _, c := range l.conns {
		_ = c.Close()
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
		return errors.New("udp listener: timeout waiting for workers to exit")
	}
}
