package transport

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl sets SO_REUSEPORT on the listening socket so multiple
// listener instances can bind the same address, with the kernel
// distributing incoming traffic across them instead of funneling it
// through a single accept/recv queue.
func reusePortControl(_, _ string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
}

// ListenUDPReusePort opens a UDP socket bound to addr with SO_REUSEPORT set.
func ListenUDPReusePort(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: reusePortControl}
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// ListenTCPReusePort opens a TCP listener bound to addr with SO_REUSEPORT set.
func ListenTCPReusePort(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reusePortControl}
	return lc.Listen(ctx, "tcp", addr)
}
