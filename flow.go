package synprobe

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

// Flags is the TCP control bit set carried in byte 13 of the header.
type Flags uint8

// TCP flags
const (
	FlagFIN Flags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
)

var flagNames = [...]string{"FIN", "SYN", "RST", "PSH", "ACK", "URG", "ECE", "CWR"}

// Has reports whether every bit of o is set in f.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// String returns the set flags joined by "|", e.g. "SYN|ACK".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// ParseFlags parses a comma or "|" separated list of flag names.
// Matching is case-insensitive.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	})
	for _, field := range fields {
		found := false
		for i, name := range flagNames {
			if strings.EqualFold(field, name) {
				f |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, errors.Errorf("unknown TCP flag %q", field)
		}
	}
	return f, nil
}

// Flow identifies the two endpoints of a probe.
type Flow struct {
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
}

// NewFlow creates a Flow from addresses and ports. IPv4-mapped IPv6
// addresses are unmapped.
func NewFlow(srcIP, dstIP netip.Addr, srcPort, dstPort uint16) Flow {
	return Flow{
		SrcIP:   srcIP.Unmap(),
		DstIP:   dstIP.Unmap(),
		SrcPort: srcPort,
		DstPort: dstPort,
	}
}

// String returns a string representation of the flow
func (f Flow) String() string {
	return fmt.Sprintf("%s -> %s",
		netip.AddrPortFrom(f.SrcIP, f.SrcPort), netip.AddrPortFrom(f.DstIP, f.DstPort))
}

// Reverse returns a new Flow with source and destination swapped
func (f Flow) Reverse() Flow {
	return Flow{
		SrcIP:   f.DstIP,
		DstIP:   f.SrcIP,
		SrcPort: f.DstPort,
		DstPort: f.SrcPort,
	}
}

// addrs returns both endpoints as 4-byte arrays, or ErrInvalidAddress if
// either is not an IPv4 address.
func (f Flow) addrs() (src, dst [4]byte, err error) {
	s, d := f.SrcIP.Unmap(), f.DstIP.Unmap()
	if !s.Is4() {
		return src, dst, errors.Wrapf(ErrInvalidAddress, "source %v", f.SrcIP)
	}
	if !d.Is4() {
		return src, dst, errors.Wrapf(ErrInvalidAddress, "destination %v", f.DstIP)
	}
	return s.As4(), d.As4(), nil
}
