package synprobe

import (
	"context"
	"net/netip"

	"go.uber.org/zap"
)

// Sender hands a finished packet to the network layer.
type Sender interface {
	Send(ctx context.Context, pkt []byte, dst netip.Addr) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, pkt []byte, dst netip.Addr) error

// Send calls f(ctx, pkt, dst).
func (f SenderFunc) Send(ctx context.Context, pkt []byte, dst netip.Addr) error {
	return f(ctx, pkt, dst)
}

type sendOptions struct {
	logger *zap.Logger
}

// Option configures SendProbe.
type Option func(*sendOptions)

// WithLogger sets the logger used by SendProbe. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *sendOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func newSendOptions(opts []Option) sendOptions {
	o := sendOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SendProbe builds p and hands it to s. Build errors are returned before
// anything is sent. Errors from s are wrapped in a *TransmissionError.
// On success the number of bytes handed to s is returned.
func SendProbe(ctx context.Context, s Sender, p Probe, opts ...Option) (int, error) {
	pkt, err := p.Build()
	if err != nil {
		newSendOptions(opts).logger.Debug("Probe not built",
			zap.Stringer("flow", p.Flow), zap.Error(err))
		return 0, err
	}
	if err := Transmit(ctx, s, pkt, p.Flow, opts...); err != nil {
		return 0, err
	}
	return len(pkt), nil
}

// Transmit hands an already built packet for flow to s. Errors from s
// are wrapped in a *TransmissionError.
func Transmit(ctx context.Context, s Sender, pkt []byte, flow Flow, opts ...Option) error {
	o := newSendOptions(opts)
	if ce := o.logger.Check(zap.DebugLevel, "Sending packet"); ce != nil {
		ce.Write(packetFields(pkt)...)
	}
	dst := flow.DstIP.Unmap()
	if err := s.Send(ctx, pkt, dst); err != nil {
		return &TransmissionError{Dst: dst, Err: err}
	}
	o.logger.Info("Packet sent", zap.Stringer("flow", flow), zap.Int("length", len(pkt)))
	return nil
}
