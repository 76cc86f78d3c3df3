package synprobe

import (
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
)

// Errors
var (
	// ErrOversizedPayload is returned when headers plus payload do not fit
	// the 16-bit IPv4 total length field.
	ErrOversizedPayload = errors.New("payload exceeds maximum IPv4 total length")
	ErrInvalidAddress   = errors.New("not an IPv4 address")
	ErrTruncated        = errors.New("buffer too short")
	ErrBadChecksum      = errors.New("checksum mismatch")
	ErrLengthMismatch   = errors.New("total length does not match packet size")
	ErrUnsupported      = errors.New("raw sockets not supported on this platform")
)

// TransmissionError is returned when a packet was built but the sender
// failed to hand it to the network.
type TransmissionError struct {
	Dst netip.Addr
	Err error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("send to %v failed: %v", e.Dst, e.Err)
}

func (e *TransmissionError) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause from github.com/pkg/errors reach the
// platform error.
func (e *TransmissionError) Cause() error {
	return e.Err
}
