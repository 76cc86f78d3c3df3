package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Musixal/synprobe"
)

func parseConfig(t *testing.T, args ...string) config {
	t.Helper()
	fs := pflag.NewFlagSet("synprobe", pflag.ContinueOnError)
	addFlags(fs)
	require.NoError(t, fs.Parse(args))
	cfg, err := loadConfig(viper.New(), fs)
	require.NoError(t, err)
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := parseConfig(t, "--src", "10.0.0.1", "--dst", "10.0.0.2:80")
	assert.Equal(t, uint16(1234), cfg.SrcPort)
	assert.Equal(t, uint16(synprobe.DefaultWindow), cfg.Window)
	assert.Equal(t, uint8(synprobe.DefaultTTL), cfg.TTL)
	assert.Equal(t, "SYN", cfg.Flags)
	assert.Equal(t, backendRawSocket, cfg.Backend)

	probes, err := cfg.probes()
	require.NoError(t, err)
	require.Len(t, probes, 1)
	assert.Equal(t, "10.0.0.1:1234 -> 10.0.0.2:80", probes[0].Flow.String())
	assert.Equal(t, synprobe.FlagSYN, probes[0].Flags)
}

func TestConfigPortsAndFlags(t *testing.T) {
	cfg := parseConfig(t, "--src", "10.0.0.1", "--dst", "10.0.0.2",
		"--dport", "22,80", "--dport", "443", "--flags", "syn,ack", "--payload", "hi")
	probes, err := cfg.probes()
	require.NoError(t, err)
	require.Len(t, probes, 3)
	for i, port := range []uint16{22, 80, 443} {
		assert.Equal(t, port, probes[i].Flow.DstPort)
		assert.Equal(t, synprobe.FlagSYN|synprobe.FlagACK, probes[i].Flags)
		assert.Equal(t, []byte("hi"), probes[i].Payload)
	}
}

func TestConfigEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("src: 192.168.1.2\nttl: 255\nbackend: pcap\n"), 0o644))
	t.Setenv("SYNPROBE_DST", "192.168.1.3:8080")
	t.Setenv("SYNPROBE_TTL", "128")

	cfg := parseConfig(t, "--config", path, "--window", "1024")
	assert.Equal(t, "192.168.1.2", cfg.Src)
	assert.Equal(t, "192.168.1.3:8080", cfg.Dst)
	assert.Equal(t, uint8(128), cfg.TTL, "env overrides file")
	assert.Equal(t, uint16(1024), cfg.Window)
	assert.Equal(t, backendPCAP, cfg.Backend)
}

func TestConfigErrors(t *testing.T) {
	tests := map[string][]string{
		"no src":       {"--dst", "10.0.0.2:80"},
		"bad dst":      {"--src", "10.0.0.1", "--dst", "nowhere"},
		"no port":      {"--src", "10.0.0.1", "--dst", "10.0.0.2"},
		"bad port":     {"--src", "10.0.0.1", "--dst", "10.0.0.2", "--dport", "70000"},
		"unknown flag": {"--src", "10.0.0.1", "--dst", "10.0.0.2:80", "--flags", "SYN,BOGUS"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(t, args...).probes()
			assert.Error(t, err)
		})
	}
}

func TestRunPCAP(t *testing.T) {
	out := filepath.Join(t.TempDir(), "probes.pcap")
	cfg := parseConfig(t, "--src", "10.0.0.1", "--dst", "10.0.0.2", "--dport", "80,443",
		"--backend", "pcap", "--pcap-file", out, "--hex")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, zap.NewNop(), &stdout))
	assert.Contains(t, stdout.String(), "10.0.0.1:1234 -> 10.0.0.2:443 (40 bytes)")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)
	for _, port := range []uint16{80, 443} {
		data, _, err := r.ReadPacketData()
		require.NoError(t, err)
		require.NoError(t, synprobe.Verify(data))
		_, tcp, err := synprobe.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, port, uint16(tcp.DstPort))
		assert.True(t, tcp.SYN)
	}
}

func TestRunOversizedPayloadNeverOpensSender(t *testing.T) {
	out := filepath.Join(t.TempDir(), "probes.pcap")
	payload := string(make([]byte, synprobe.MaxPayloadLen+1))
	cfg := parseConfig(t, "--src", "10.0.0.1", "--dst", "10.0.0.2:80",
		"--backend", "pcap", "--pcap-file", out, "--payload", payload)

	err := run(context.Background(), cfg, zap.NewNop(), &bytes.Buffer{})
	assert.ErrorIs(t, err, synprobe.ErrOversizedPayload)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewSenderUnknownBackend(t *testing.T) {
	_, _, err := newSender(config{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	assert.NoError(t, err)
	_, err = newLogger("loud")
	assert.Error(t, err)
}
