package framing

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hydraforward/hydraforward/internal/ferrors"
	"github.com/hydraforward/hydraforward/internal/pool"
	"github.com/hydraforward/hydraforward/internal/transport"
)

var lenBufPool = pool.New(func() []byte { return make([]byte, 2) })

// TCPFramer implements RFC 1035 §4.2.2 framing: a big-endian 16-bit length
// prefix followed by the message. Reads and writes are each serialised by
// a connection-local lock so concurrent callers cannot interleave frames
// or tear a header away from its payload.
type TCPFramer struct {
	conn    transport.Conn
	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewTCPFramer wraps an established TCP transport.Conn.
func NewTCPFramer(conn transport.Conn) *TCPFramer {
	return &TCPFramer{conn: conn}
}

func (f *TCPFramer) ReadMessage() ([]byte, error) {
	f.readMu.Lock()
	defer f.readMu.Unlock()

	lenBuf := lenBufPool.Get()
	defer lenBufPool.Put(lenBuf)

	if _, err := io.ReadFull(readerOf(f.conn), lenBuf); err != nil {
		return nil, fmt.Errorf("%w: short read on length prefix: %v", ferrors.ErrFraming, err)
	}
	msgLen := binary.BigEndian.Uint16(lenBuf)

	body := make([]byte, msgLen)
	if msgLen > 0 {
		if _, err := io.ReadFull(readerOf(f.conn), body); err != nil {
			return nil, fmt.Errorf("%w: short read on message body: %v", ferrors.ErrFraming, err)
		}
	}
	return body, nil
}

func (f *TCPFramer) WriteMessage(msg []byte) error {
	if len(msg) > 0xFFFF {
		return fmt.Errorf("%w: message too large for a 16-bit length prefix (%d bytes)", ferrors.ErrFraming, len(msg))
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	lenBuf := lenBufPool.Get()
	defer lenBufPool.Put(lenBuf)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(msg)))

	bufs := net.Buffers{lenBuf}
	if len(msg) > 0 {
		bufs = append(bufs, msg)
	}
	n, err := bufs.WriteTo(writerOf(f.conn))
	if err != nil {
		return fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}
	if n != int64(len(lenBuf)+len(msg)) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ferrors.ErrFraming, n, len(lenBuf)+len(msg))
	}
	return nil
}

func (f *TCPFramer) Close() error {
	return f.conn.Close()
}

// readerOf/writerOf adapt a transport.Conn to io.Reader/io.Writer so the
// stdlib helpers (io.ReadFull, net.Buffers.WriteTo) can operate on it
// without widening the Conn interface itself.
func readerOf(c transport.Conn) io.Reader { return connRW{c} }
func writerOf(c transport.Conn) io.Writer { return connRW{c} }

type connRW struct{ c transport.Conn }

func (r connRW) Read(p []byte) (int, error)  { return r.c.Read(p) }
func (r connRW) Write(p []byte) (int, error) { return r.c.Write(p) }
