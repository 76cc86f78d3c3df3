package synprobe

import "encoding/binary"

// Checksum calculates the RFC 1071 Internet checksum of b.
// Words are read in network byte order. If b has an odd length the last
// byte is the high-order byte of a word padded with a zero.
func Checksum(b []byte) uint16 {
	return checksumFold(checksumAdd(0, b))
}

// checksumAdd adds the 16-bit words of b to a partial sum. Only the last
// chunk passed for a given sum may have an odd length.
func checksumAdd(sum uint64, b []byte) uint64 {
	n := len(b)
	i := 0
	for ; n-i >= 2; i += 2 {
		sum += uint64(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if i < n {
		sum += uint64(b[i]) << 8
	}
	return sum
}

func checksumFold(sum uint64) uint16 {
	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return ^uint16(sum)
}
