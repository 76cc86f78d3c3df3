package synprobe

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAll(t *testing.T) {
	probes := make([]Probe, 200)
	for i := range probes {
		probes[i] = NewSYNProbe(NewFlow(testSrc, testDst, 40000, uint16(i+1)), uint32(i))
	}
	pkts, err := BuildAll(context.Background(), probes)
	require.NoError(t, err)
	require.Len(t, pkts, len(probes))
	for i, pkt := range pkts {
		want, err := probes[i].Build()
		require.NoError(t, err)
		assert.Equal(t, want, pkt, "probe %d", i)
	}
}

func TestBuildAllError(t *testing.T) {
	probes := []Probe{
		NewSYNProbe(NewFlow(testSrc, testDst, 1, 2), 0),
		NewSYNProbe(NewFlow(testSrc, netip.MustParseAddr("::1"), 1, 2), 0),
	}
	pkts, err := BuildAll(context.Background(), probes)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Nil(t, pkts)
}

func TestBuildAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildAll(ctx, []Probe{NewSYNProbe(NewFlow(testSrc, testDst, 1, 2), 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildAllEmpty(t *testing.T) {
	pkts, err := BuildAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, pkts)
}
