package synprobe

import (
	"go.uber.org/zap"
)

// packetFields decodes pkt and returns its header fields for logging.
func packetFields(pkt []byte) []zap.Field {
	ip, tcp, err := Decode(pkt)
	if err != nil {
		return []zap.Field{zap.Int("length", len(pkt)), zap.NamedError("decode_err", err)}
	}
	return []zap.Field{
		zap.Int("length", len(pkt)),
		zap.Stringer("src", ip.SrcIP),
		zap.Stringer("dst", ip.DstIP),
		zap.Uint8("ttl", ip.TTL),
		zap.Uint16("ip_id", ip.Id),
		zap.Uint16("ip_checksum", ip.Checksum),
		zap.Uint16("sport", uint16(tcp.SrcPort)),
		zap.Uint16("dport", uint16(tcp.DstPort)),
		zap.Uint32("seq", tcp.Seq),
		zap.Uint32("ack", tcp.Ack),
		zap.Stringer("flags", flagsOf(tcp)),
		zap.Uint16("window", tcp.Window),
		zap.Uint16("tcp_checksum", tcp.Checksum),
	}
}
