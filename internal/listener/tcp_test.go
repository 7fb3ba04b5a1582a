package listener

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrame(t *testing.T, conn net.Conn, msg []byte) {
	t.Helper()
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(msg)))
	_, err := conn.Write(append(lenBuf, msg...))
	require.NoError(t, err)
}

func readFrame(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	lenBuf := make([]byte, 2)
	_, err := conn.Read(lenBuf)
	require.NoError(t, err)
	msgLen := binary.BigEndian.Uint16(lenBuf)
	body := make([]byte, msgLen)
	n := 0
	for n < len(body) {
		m, err := conn.Read(body[n:])
		require.NoError(t, err)
		n += m
	}
	return body
}

func TestTCPListenerPipelinesMultipleQueries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	l := &TCPListener{Forwarder: &stubAnswerer{}}
	done := make(chan struct{})
	go func() {
		l.acceptLoop(ctx, ln)
		close(done)
	}()
	defer func() {
		cancel()
		ln.Close()
		<-done
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	_ = client.SetDeadline(time.Now().Add(2 * time.Second))

	writeFrame(t, client, []byte("first"))
	resp := readFrame(t, client)
	assert.Equal(t, append([]byte("first"), 0x7E), resp)

	writeFrame(t, client, []byte("second"))
	resp = readFrame(t, client)
	assert.Equal(t, append([]byte("second"), 0x7E), resp)
}

func TestTCPListenerDropsButKeepsConnectionOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	l := &TCPListener{Forwarder: &stubAnswerer{drop: true}}
	done := make(chan struct{})
	go func() {
		l.acceptLoop(ctx, ln)
		close(done)
	}()
	defer func() {
		cancel()
		ln.Close()
		<-done
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	_ = client.SetDeadline(time.Now().Add(2 * time.Second))

	writeFrame(t, client, []byte("dropped"))

	_ = client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 8)
	_, err = client.Read(buf)
	assert.Error(t, err)
	// A read timeout, not EOF: the listener has not closed the connection.
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}
