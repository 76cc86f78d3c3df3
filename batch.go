package synprobe

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BuildAll builds every probe concurrently. The result has one packet per
// probe, in order. The first build error cancels the remaining work.
func BuildAll(ctx context.Context, probes []Probe) ([][]byte, error) {
	pkts := make([][]byte, len(probes))
	g, ctx := errgroup.WithContext(ctx)
	for i := range probes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pkt, err := probes[i].Build()
			if err != nil {
				return err
			}
			pkts[i] = pkt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pkts, nil
}
