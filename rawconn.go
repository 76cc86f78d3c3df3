package synprobe

import (
	"context"
	"net"
	"net/netip"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

// RawConn sends packets through an ip4:tcp packet connection wrapped in
// an ipv4.RawConn. The context deadline, if any, bounds the write.
type RawConn struct {
	// ListenAddr is the local address to bind. Empty means 0.0.0.0.
	ListenAddr string
}

// Send implements Sender.
func (r RawConn) Send(ctx context.Context, pkt []byte, dst netip.Addr) error {
	h, err := ipv4.ParseHeader(pkt)
	if err != nil {
		return errors.Wrap(err, "parsing ipv4 header")
	}
	if !h.Dst.Equal(net.IP(dst.Unmap().AsSlice())) {
		return errors.Wrapf(ErrInvalidAddress, "destination %v does not match header %v", dst, h.Dst)
	}

	laddr := r.ListenAddr
	if laddr == "" {
		laddr = "0.0.0.0"
	}
	var lc net.ListenConfig
	c, err := lc.ListenPacket(ctx, "ip4:tcp", laddr)
	if err != nil {
		return errors.Wrap(err, "listen ip4:tcp")
	}
	defer c.Close()

	rc, err := ipv4.NewRawConn(c)
	if err != nil {
		return errors.Wrap(err, "raw conn")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := rc.SetWriteDeadline(deadline); err != nil {
			return errors.Wrap(err, "set deadline")
		}
	}
	if err := rc.WriteTo(h, pkt[h.Len:], nil); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}
