//go:build !windows

// Ported from the teacher's internal/dns/server/reuseport_unix.go: SO_REUSEPORT
// lets every UDP listener in the pool bind the same address so the kernel
// load-balances datagrams across them instead of one goroutine owning the socket.
package main

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

func reuseportListenConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var setErr error
			if err := c.Control(func(fd uintptr) {
				setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}); err != nil {
				return err
			}
			return setErr
		},
	}
}
