package artnet

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// Listen binds the Art-Net port on all interfaces. Address and port reuse
// are enabled so other Art-Net software on the host keeps working.
func Listen(ctx context.Context) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return control(c, unix.SO_REUSEADDR, unix.SO_REUSEPORT, unix.SO_BROADCAST)
		},
	}
	conn, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to bind Art-Net port %d: %w", Port, err)
	}
	return conn, nil
}

func enableBroadcast(conn net.PacketConn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("failed to access Art-Net socket: %w", err)
	}
	return control(raw, unix.SO_BROADCAST)
}

func control(c syscall.RawConn, opts ...int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		for _, opt := range opts {
			if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, 1); serr != nil {
				serr = fmt.Errorf("setsockopt %d: %w", opt, serr)
				return
			}
		}
	})
	if err != nil {
		return err
	}
	return serr
}
