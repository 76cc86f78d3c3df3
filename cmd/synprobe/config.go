package main

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Musixal/synprobe"
)

const envPrefix = "SYNPROBE"

// Backends
const (
	backendRawSocket = "rawsock"
	backendRawConn   = "rawconn"
	backendPCAP      = "pcap"
)

type config struct {
	Src      string   `mapstructure:"src"`
	Dst      string   `mapstructure:"dst"`
	SrcPort  uint16   `mapstructure:"sport"`
	DstPorts []string `mapstructure:"dport"`
	Seq      uint32   `mapstructure:"seq"`
	Ack      uint32   `mapstructure:"ack"`
	Window   uint16   `mapstructure:"window"`
	TTL      uint8    `mapstructure:"ttl"`
	ID       uint16   `mapstructure:"id"`
	DF       bool     `mapstructure:"df"`
	Flags    string   `mapstructure:"flags"`
	Payload  string   `mapstructure:"payload"`
	Backend  string   `mapstructure:"backend"`
	PCAPFile string   `mapstructure:"pcap-file"`
	Hex      bool     `mapstructure:"hex"`
	LogLevel string   `mapstructure:"log-level"`
}

func addFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional config file (yaml, toml or json)")
	fs.String("src", "", "source IPv4 address")
	fs.String("dst", "", "destination IPv4 address, optionally with :port")
	fs.Uint16("sport", 1234, "source TCP port")
	fs.StringSlice("dport", nil, "destination TCP port(s), comma separated")
	fs.Uint32("seq", 0, "sequence number")
	fs.Uint32("ack", 0, "acknowledgment number")
	fs.Uint16("window", synprobe.DefaultWindow, "advertised window")
	fs.Uint8("ttl", synprobe.DefaultTTL, "IPv4 time to live")
	fs.Uint16("id", synprobe.DefaultID, "IPv4 identification")
	fs.Bool("df", false, "set the don't fragment bit")
	fs.String("flags", "SYN", "TCP flags, e.g. SYN or SYN,ACK")
	fs.String("payload", "", "segment payload")
	fs.String("backend", backendRawSocket, "transmission backend: rawsock, rawconn or pcap")
	fs.String("pcap-file", "synprobe.pcap", "output file for the pcap backend")
	fs.Bool("hex", false, "print a hex dump of every packet")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig merges flags, SYNPROBE_* environment variables and the
// optional config file, in that order of precedence.
func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return config{}, errors.Wrap(err, "binding flags")
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, errors.Wrapf(err, "reading config %s", path)
		}
	}
	var c config
	if err := v.Unmarshal(&c); err != nil {
		return config{}, errors.Wrap(err, "decoding config")
	}
	return c, nil
}

// probes returns one probe per destination port.
func (c config) probes() ([]synprobe.Probe, error) {
	src, err := netip.ParseAddr(c.Src)
	if err != nil {
		return nil, errors.Wrap(err, "--src")
	}
	dst, ports, err := c.destination()
	if err != nil {
		return nil, err
	}
	flags, err := synprobe.ParseFlags(c.Flags)
	if err != nil {
		return nil, errors.Wrap(err, "--flags")
	}

	probes := make([]synprobe.Probe, 0, len(ports))
	for _, port := range ports {
		probes = append(probes, synprobe.Probe{
			Flow:         synprobe.NewFlow(src, dst, c.SrcPort, port),
			Seq:          c.Seq,
			Ack:          c.Ack,
			Flags:        flags,
			Window:       c.Window,
			TTL:          c.TTL,
			ID:           c.ID,
			DontFragment: c.DF,
			Payload:      []byte(c.Payload),
		})
	}
	return probes, nil
}

func (c config) destination() (netip.Addr, []uint16, error) {
	var ports []uint16
	dst, err := netip.ParseAddr(c.Dst)
	if err != nil {
		ap, apErr := netip.ParseAddrPort(c.Dst)
		if apErr != nil {
			return netip.Addr{}, nil, errors.Wrap(err, "--dst")
		}
		dst = ap.Addr()
		ports = append(ports, ap.Port())
	}
	for _, list := range c.DstPorts {
		for _, s := range strings.Split(list, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			port, err := strconv.ParseUint(s, 10, 16)
			if err != nil {
				return netip.Addr{}, nil, errors.Wrapf(err, "--dport %q", s)
			}
			ports = append(ports, uint16(port))
		}
	}
	if len(ports) == 0 {
		return netip.Addr{}, nil, errors.New("no destination port given")
	}
	return dst, ports, nil
}
