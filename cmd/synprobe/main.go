// Command synprobe crafts raw IPv4/TCP probe packets (SYN by default) and
// sends them through a raw socket or records them to a pcap file.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Musixal/synprobe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "synprobe",
		Short: "Craft and send a raw TCP probe",
		Example: `  synprobe --src 10.0.0.1 --dst 10.0.0.2:80
  synprobe --src 10.0.0.1 --dst 10.0.0.2 --dport 22,80,443 --backend pcap --pcap-file probes.pcap`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return run(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
	addFlags(cmd.Flags())
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "--log-level")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func run(ctx context.Context, cfg config, logger *zap.Logger, out io.Writer) error {
	probes, err := cfg.probes()
	if err != nil {
		return err
	}
	// Every packet is built before the first one is sent.
	pkts, err := synprobe.BuildAll(ctx, probes)
	if err != nil {
		return errors.Wrap(err, "packet not sent")
	}

	sender, closeSender, err := newSender(cfg)
	if err != nil {
		return err
	}
	defer closeSender()

	for i, pkt := range pkts {
		if cfg.Hex {
			fmt.Fprintf(out, "%s (%d bytes)\n%s", probes[i].Flow, len(pkt), hex.Dump(pkt))
		}
		err := synprobe.Transmit(ctx, sender, pkt, probes[i].Flow, synprobe.WithLogger(logger))
		if err != nil {
			return err
		}
	}
	return nil
}

func newSender(cfg config) (synprobe.Sender, func(), error) {
	switch cfg.Backend {
	case backendRawSocket:
		return synprobe.RawSocket{}, func() {}, nil
	case backendRawConn:
		return synprobe.RawConn{}, func() {}, nil
	case backendPCAP:
		f, err := os.Create(cfg.PCAPFile)
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating pcap file")
		}
		return synprobe.NewPCAPWriter(f), func() { f.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}
}
