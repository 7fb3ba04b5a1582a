package framing

import (
	"fmt"
	"sync"

	"github.com/hydraforward/hydraforward/internal/ferrors"
	"github.com/hydraforward/hydraforward/internal/transport"
)

// UDPFramer is the passthrough framing: each Read yields exactly one
// datagram, each Write sends exactly one datagram.
type UDPFramer struct {
	conn     transport.Conn
	readMu   sync.Mutex
	writeMu  sync.Mutex
}

// NewUDPFramer wraps conn, a UDP socket already connected to its peer.
func NewUDPFramer(conn transport.Conn) *UDPFramer {
	return &UDPFramer{conn: conn}
}

func (f *UDPFramer) ReadMessage() ([]byte, error) {
	f.readMu.Lock()
	defer f.readMu.Unlock()

	buf := make([]byte, MaxUDPMessageSize)
	n, err := f.conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}
	return buf[:n], nil
}

func (f *UDPFramer) WriteMessage(msg []byte) error {
	if len(msg) > MaxUDPMessageSize {
		return fmt.Errorf("%w: message too large for one datagram (%d > %d)", ferrors.ErrFraming, len(msg), MaxUDPMessageSize)
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	n, err := f.conn.Write(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ferrors.ErrIO, err)
	}
	if n != len(msg) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ferrors.ErrFraming, n, len(msg))
	}
	return nil
}

func (f *UDPFramer) Close() error {
	return f.conn.Close()
}
