package synprobe

import (
	"encoding/binary"
	"net/netip"

	"github.com/pkg/errors"
)

// Defaults used by BuildSYNPacket
const (
	DefaultTTL    = 64
	DefaultID     = 54321
	DefaultWindow = 5840
)

// Probe describes a single IPv4/TCP packet to craft. The zero value of
// TTL is sent as is; use NewSYNProbe for sensible defaults.
type Probe struct {
	Flow         Flow
	Seq          uint32
	Ack          uint32
	Flags        Flags
	Window       uint16
	TTL          uint8
	TOS          uint8
	ID           uint16
	DontFragment bool
	Payload      []byte
}

// NewSYNProbe returns a probe for flow with only SYN set.
func NewSYNProbe(flow Flow, seq uint32) Probe {
	return Probe{
		Flow:   flow,
		Seq:    seq,
		Flags:  FlagSYN,
		Window: DefaultWindow,
		TTL:    DefaultTTL,
		ID:     DefaultID,
	}
}

// Len returns the serialized size of the probe.
func (p *Probe) Len() int {
	return IPv4HeaderLen + TCPHeaderLen + len(p.Payload)
}

// Build serializes the probe into a new buffer holding the IPv4 header,
// the TCP header and the payload, with both checksums filled in.
func (p *Probe) Build() ([]byte, error) {
	if len(p.Payload) > MaxPayloadLen {
		return nil, errors.Wrapf(ErrOversizedPayload, "payload is %d bytes, max %d",
			len(p.Payload), MaxPayloadLen)
	}
	src, dst, err := p.Flow.addrs()
	if err != nil {
		return nil, err
	}

	total := p.Len()
	buf := make([]byte, total)
	ipBuf, segment := buf[:IPv4HeaderLen], buf[IPv4HeaderLen:]

	ip := IPv4Header{
		TOS:         p.TOS,
		TotalLength: uint16(total),
		ID:          p.ID,
		TTL:         p.TTL,
		Protocol:    ProtocolTCP,
		Src:         src,
		Dst:         dst,
	}
	if p.DontFragment {
		ip.FlagsFrag = ipv4DontFragment
	}
	if err := ip.MarshalTo(ipBuf); err != nil {
		return nil, err
	}

	tcp := TCPHeader{
		SrcPort: p.Flow.SrcPort,
		DstPort: p.Flow.DstPort,
		Seq:     p.Seq,
		Ack:     p.Ack,
		Flags:   p.Flags,
		Window:  p.Window,
	}
	if err := tcp.MarshalTo(segment); err != nil {
		return nil, err
	}
	copy(segment[TCPHeaderLen:], p.Payload)

	ph := PseudoHeader{
		Src:      src,
		Dst:      dst,
		Protocol: ProtocolTCP,
		Length:   uint16(len(segment)),
	}
	binary.BigEndian.PutUint16(segment[16:18], ph.Checksum(segment))
	binary.BigEndian.PutUint16(ipBuf[10:12], Checksum(ipBuf))

	return buf, nil
}

// BuildSYNPacket builds a SYN segment from src:srcPort to dst:dstPort.
// It returns the packet and its length, which equals the IPv4 total
// length field.
func BuildSYNPacket(src, dst netip.Addr, srcPort, dstPort uint16, seq, ack uint32,
	window uint16, payload []byte) ([]byte, int, error) {

	p := NewSYNProbe(NewFlow(src, dst, srcPort, dstPort), seq)
	p.Ack = ack
	p.Window = window
	p.Payload = payload
	buf, err := p.Build()
	if err != nil {
		return nil, 0, err
	}
	return buf, len(buf), nil
}

// Verify checks that pkt is a well formed IPv4/TCP packet whose total
// length and checksums are consistent.
func Verify(pkt []byte) error {
	ip, err := ParseIPv4Header(pkt)
	if err != nil {
		return err
	}
	if int(ip.TotalLength) != len(pkt) {
		return errors.Wrapf(ErrLengthMismatch, "header says %d, packet is %d",
			ip.TotalLength, len(pkt))
	}
	if ip.Protocol != ProtocolTCP {
		return errors.Errorf("unexpected IP protocol %d", ip.Protocol)
	}
	if Checksum(pkt[:IPv4HeaderLen]) != 0 {
		return errors.Wrap(ErrBadChecksum, "ipv4 header")
	}
	segment := pkt[IPv4HeaderLen:]
	if _, err := ParseTCPHeader(segment); err != nil {
		return err
	}
	ph := PseudoHeader{
		Src:      ip.Src,
		Dst:      ip.Dst,
		Protocol: ProtocolTCP,
		Length:   uint16(len(segment)),
	}
	if ph.Checksum(segment) != 0 {
		return errors.Wrap(ErrBadChecksum, "tcp segment")
	}
	return nil
}
