//go:build linux || darwin || freebsd || netbsd || openbsd

package synprobe

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawSocketRejectsBeforeOpening(t *testing.T) {
	pkt, _, err := BuildSYNPacket(testSrc, testDst, 1234, 80, 0, 0, 5840, nil)
	assert.NoError(t, err)

	err = RawSocket{}.Send(context.Background(), pkt, netip.MustParseAddr("2001:db8::1"))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RawSocket{}.Send(ctx, pkt, testDst), context.Canceled)
}
