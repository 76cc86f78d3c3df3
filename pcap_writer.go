package synprobe

import (
	"context"
	"io"
	"net/netip"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

const pcapSnapLen = 65536

// PCAPWriter is a Sender that records packets to a pcap stream with link
// type RAW instead of transmitting them. It is safe for concurrent use.
type PCAPWriter struct {
	mu            sync.Mutex
	w             *pcapgo.Writer
	headerWritten bool
	now           func() time.Time
}

// NewPCAPWriter returns a PCAPWriter writing to w. The file header is
// written with the first packet.
func NewPCAPWriter(w io.Writer) *PCAPWriter {
	return &PCAPWriter{
		w:   pcapgo.NewWriter(w),
		now: time.Now,
	}
}

// Send implements Sender. dst is not used; the destination is the one in
// the packet's IPv4 header.
func (p *PCAPWriter) Send(ctx context.Context, pkt []byte, _ netip.Addr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.headerWritten {
		if err := p.w.WriteFileHeader(pcapSnapLen, layers.LinkTypeRaw); err != nil {
			return errors.Wrap(err, "writing pcap file header")
		}
		p.headerWritten = true
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     p.now(),
		CaptureLength: len(pkt),
		Length:        len(pkt),
	}
	if err := p.w.WritePacket(ci, pkt); err != nil {
		return errors.Wrap(err, "writing pcap record")
	}
	return nil
}
