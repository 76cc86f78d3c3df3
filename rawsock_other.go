//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package synprobe

import (
	"context"
	"net/netip"
)

// RawSocket is not available on this platform; use RawConn or
// PCAPWriter instead.
type RawSocket struct{}

// Send implements Sender and always fails with ErrUnsupported.
func (RawSocket) Send(context.Context, []byte, netip.Addr) error {
	return ErrUnsupported
}
