//go:build linux || darwin || freebsd || netbsd || openbsd

package synprobe

import (
	"context"
	"net/netip"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// RawSocket sends packets through an IPPROTO_RAW socket with IP_HDRINCL
// set, so the kernel transmits the IPv4 header as built. A socket is
// opened per packet. Opening one usually requires CAP_NET_RAW or root.
type RawSocket struct{}

// Send implements Sender.
func (RawSocket) Send(ctx context.Context, pkt []byte, dst netip.Addr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst = dst.Unmap()
	if !dst.Is4() {
		return errors.Wrapf(ErrInvalidAddress, "destination %v", dst)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_RAW)
	if err != nil {
		return errors.Wrap(err, "socket")
	}
	defer unix.Close(fd)

	// Tell kernel not to add its own IP header
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
		return errors.Wrap(err, "setsockopt IP_HDRINCL")
	}

	addr := unix.SockaddrInet4{Addr: dst.As4()}
	if err := unix.Sendto(fd, pkt, 0, &addr); err != nil {
		return errors.Wrap(err, "sendto")
	}
	return nil
}
