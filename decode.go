package synprobe

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
)

// Decode parses a finished packet with gopacket and returns its IPv4 and
// TCP layers.
func Decode(pkt []byte) (*layers.IPv4, *layers.TCP, error) {
	packet := gopacket.NewPacket(pkt, layers.LayerTypeIPv4, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, nil, errors.Wrap(errLayer.Error(), "decoding packet")
	}

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil, nil, errors.New("packet is not IPv4")
	}
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, nil, errors.New("packet is not TCP")
	}
	return ipLayer.(*layers.IPv4), tcpLayer.(*layers.TCP), nil
}

// flagsOf converts the boolean flag fields of a decoded TCP layer back
// into a Flags set.
func flagsOf(tcp *layers.TCP) Flags {
	var f Flags
	set := func(on bool, flag Flags) {
		if on {
			f |= flag
		}
	}
	set(tcp.FIN, FlagFIN)
	set(tcp.SYN, FlagSYN)
	set(tcp.RST, FlagRST)
	set(tcp.PSH, FlagPSH)
	set(tcp.ACK, FlagACK)
	set(tcp.URG, FlagURG)
	set(tcp.ECE, FlagECE)
	set(tcp.CWR, FlagCWR)
	return f
}
