package synprobe

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Header sizes and protocol numbers
const (
	IPv4HeaderLen   = 20
	TCPHeaderLen    = 20
	PseudoHeaderLen = 12

	ProtocolTCP = 6

	ipv4Version   = 4
	tcpDataOffset = TCPHeaderLen / 4

	// ipv4DontFragment is the DF bit of the flags/fragment offset field.
	ipv4DontFragment = 0x4000

	// MaxPayloadLen is the largest payload a probe can carry.
	MaxPayloadLen = 0xffff - IPv4HeaderLen - TCPHeaderLen
)

// IPv4Header is an IPv4 header without options (RFC 791).
type IPv4Header struct {
	TOS         uint8
	TotalLength uint16
	ID          uint16
	// FlagsFrag holds the 3 flag bits and the 13-bit fragment offset.
	FlagsFrag uint16
	TTL       uint8
	Protocol  uint8
	Checksum  uint16
	Src       [4]byte
	Dst       [4]byte
}

// MarshalTo writes h into the first IPv4HeaderLen bytes of b.
func (h *IPv4Header) MarshalTo(b []byte) error {
	if len(b) < IPv4HeaderLen {
		return errors.Wrapf(ErrTruncated, "ipv4 header needs %d bytes, have %d",
			IPv4HeaderLen, len(b))
	}
	b[0] = ipv4Version<<4 | IPv4HeaderLen/4
	b[1] = h.TOS
	binary.BigEndian.PutUint16(b[2:4], h.TotalLength)
	binary.BigEndian.PutUint16(b[4:6], h.ID)
	binary.BigEndian.PutUint16(b[6:8], h.FlagsFrag)
	b[8] = h.TTL
	b[9] = h.Protocol
	binary.BigEndian.PutUint16(b[10:12], h.Checksum)
	copy(b[12:16], h.Src[:])
	copy(b[16:20], h.Dst[:])
	return nil
}

// ParseIPv4Header reads an IPv4 header from b. Headers carrying options
// are rejected.
func ParseIPv4Header(b []byte) (IPv4Header, error) {
	if len(b) < IPv4HeaderLen {
		return IPv4Header{}, errors.Wrapf(ErrTruncated, "ipv4 header needs %d bytes, have %d",
			IPv4HeaderLen, len(b))
	}
	if v := b[0] >> 4; v != ipv4Version {
		return IPv4Header{}, errors.Errorf("unexpected IP version %d", v)
	}
	if ihl := b[0] & 0x0f; ihl != IPv4HeaderLen/4 {
		return IPv4Header{}, errors.Errorf("unsupported IPv4 header length %d words", ihl)
	}
	h := IPv4Header{
		TOS:         b[1],
		TotalLength: binary.BigEndian.Uint16(b[2:4]),
		ID:          binary.BigEndian.Uint16(b[4:6]),
		FlagsFrag:   binary.BigEndian.Uint16(b[6:8]),
		TTL:         b[8],
		Protocol:    b[9],
		Checksum:    binary.BigEndian.Uint16(b[10:12]),
	}
	copy(h.Src[:], b[12:16])
	copy(h.Dst[:], b[16:20])
	return h, nil
}

// TCPHeader is a TCP header without options (RFC 793).
type TCPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Seq      uint32
	Ack      uint32
	Flags    Flags
	Window   uint16
	Checksum uint16
	Urgent   uint16
}

// MarshalTo writes h into the first TCPHeaderLen bytes of b. The data
// offset is always 5 words.
func (h *TCPHeader) MarshalTo(b []byte) error {
	if len(b) < TCPHeaderLen {
		return errors.Wrapf(ErrTruncated, "tcp header needs %d bytes, have %d",
			TCPHeaderLen, len(b))
	}
	binary.BigEndian.PutUint16(b[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(b[2:4], h.DstPort)
	binary.BigEndian.PutUint32(b[4:8], h.Seq)
	binary.BigEndian.PutUint32(b[8:12], h.Ack)
	b[12] = tcpDataOffset << 4
	b[13] = uint8(h.Flags)
	binary.BigEndian.PutUint16(b[14:16], h.Window)
	binary.BigEndian.PutUint16(b[16:18], h.Checksum)
	binary.BigEndian.PutUint16(b[18:20], h.Urgent)
	return nil
}

// ParseTCPHeader reads a TCP header from b. Headers carrying options are
// rejected.
func ParseTCPHeader(b []byte) (TCPHeader, error) {
	if len(b) < TCPHeaderLen {
		return TCPHeader{}, errors.Wrapf(ErrTruncated, "tcp header needs %d bytes, have %d",
			TCPHeaderLen, len(b))
	}
	if off := b[12] >> 4; off != tcpDataOffset {
		return TCPHeader{}, errors.Errorf("unsupported TCP data offset %d", off)
	}
	return TCPHeader{
		SrcPort:  binary.BigEndian.Uint16(b[0:2]),
		DstPort:  binary.BigEndian.Uint16(b[2:4]),
		Seq:      binary.BigEndian.Uint32(b[4:8]),
		Ack:      binary.BigEndian.Uint32(b[8:12]),
		Flags:    Flags(b[13]),
		Window:   binary.BigEndian.Uint16(b[14:16]),
		Checksum: binary.BigEndian.Uint16(b[16:18]),
		Urgent:   binary.BigEndian.Uint16(b[18:20]),
	}, nil
}

// PseudoHeader is prepended to the TCP segment for checksum calculation
// only. It is never transmitted.
type PseudoHeader struct {
	Src      [4]byte
	Dst      [4]byte
	Protocol uint8
	// Length is the TCP header plus payload length.
	Length uint16
}

func (p *PseudoHeader) bytes() [PseudoHeaderLen]byte {
	var b [PseudoHeaderLen]byte
	copy(b[0:4], p.Src[:])
	copy(b[4:8], p.Dst[:])
	b[9] = p.Protocol
	binary.BigEndian.PutUint16(b[10:12], p.Length)
	return b
}

// Checksum calculates the TCP checksum of segment (TCP header and
// payload) under this pseudo-header. The checksum field of segment must
// be zero while computing it; a segment with a correct checksum yields 0.
func (p *PseudoHeader) Checksum(segment []byte) uint16 {
	ph := p.bytes()
	return checksumFold(checksumAdd(checksumAdd(0, ph[:]), segment))
}
