// Package sys provides system utilities with the same API across OSes.
package sys

import (
	"context"
	"net"

	"github.com/mattn/go-isatty"
)

// IsATTY determines whether the given file is a terminal.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Listen announces on the local network address, like net.Listen. On Unix the
// socket is created with SO_REUSEADDR, so that a restarted server can bind
// while old connections are in TIME_WAIT.
func Listen(network, address string) (net.Listener, error) {
	lc := net.ListenConfig{Control: control}
	return lc.Listen(context.Background(), network, address)
}
