package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/davidkroell/edustack"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer is written from the dispatcher goroutine while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func loopbackConfig(t *testing.T) *edustack.Config {
	t.Helper()

	cfg, err := edustack.UnmarshalConfig([]byte(`
devices:
  - name: lo
    type: loopback
    address: 127.0.0.1/8
`))
	require.NoError(t, err)
	return cfg
}

// runningStack brings up a loopback-only stack and installs it for the
// shell commands.
func runningStack(t *testing.T) *edustack.Stack {
	t.Helper()

	s, err := buildStack(loopbackConfig(t), zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, s.RunWorkers(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, s.Shutdown())
	})

	stack = s
	return s
}

func execShell(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &syncBuffer{}
	cmd := shellRootCommand(context.Background())
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBuildStack(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		s, err := buildStack(edustack.DefaultConfig(), zerolog.Nop(), nil)
		require.NoError(t, err)

		require.Len(t, s.Devices(), 2)
		tap, err := s.DeviceByName("tap0")
		require.NoError(t, err)
		assert.Equal(t, edustack.DeviceTypeEthernet, tap.Type)

		ri, err := s.RouteLookup(net.IPv4(198, 51, 100, 1))
		require.NoError(t, err)
		assert.Equal(t, edustack.DefaultRouteType, ri.RouteType)
		assert.NoError(t, s.Shutdown())
	})

	t.Run("UnknownDeviceType", func(t *testing.T) {
		cfg := loopbackConfig(t)
		cfg.Devices[0].Type = "wireless"

		_, err := buildStack(cfg, zerolog.Nop(), nil)
		assert.ErrorIs(t, err, edustack.ErrInvalidConfig)
	})
}

func TestNewDevice(t *testing.T) {
	tests := map[string]struct {
		config   edustack.DeviceConfig
		wantType edustack.DeviceType
		wantErr  error
	}{
		"Loopback": {
			config:   edustack.DeviceConfig{Name: "lo", Type: edustack.DeviceKindLoopback},
			wantType: edustack.DeviceTypeLoopback,
		},
		"Tap": {
			config:   edustack.DeviceConfig{Name: "tap0", Type: edustack.DeviceKindTap, HardwareAddr: "02:00:00:00:00:01"},
			wantType: edustack.DeviceTypeEthernet,
		},
		"Raw": {
			config:   edustack.DeviceConfig{Name: "eth0", Type: edustack.DeviceKindRaw, HardwareAddr: "02:00:00:00:00:01", HostInterface: "eth0"},
			wantType: edustack.DeviceTypeEthernet,
		},
		"MissingHardwareAddr": {
			config:  edustack.DeviceConfig{Name: "tap0", Type: edustack.DeviceKindTap},
			wantErr: edustack.ErrInvalidConfig,
		},
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			dev, err := newDevice(v.config)
			if v.wantErr != nil {
				assert.ErrorIs(t, err, v.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, v.config.Name, dev.Name)
			assert.Equal(t, v.wantType, dev.Type)
		})
	}
}

func TestPingTarget(t *testing.T) {
	cfg := edustack.DefaultConfig()

	dst, err := pingTarget(cfg, []string{"192.0.2.77"})
	require.NoError(t, err)
	assert.Equal(t, net.IP{192, 0, 2, 77}, dst)

	dst, err = pingTarget(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, net.IP{192, 0, 2, 1}, dst)

	_, err = pingTarget(loopbackConfig(t), nil)
	assert.ErrorIs(t, err, ErrTooFewArguments)

	_, err = pingTarget(cfg, []string{"not-an-ip"})
	assert.Error(t, err)
}

func TestEchoPayload(t *testing.T) {
	assert.Equal(t, []byte("abcde"), echoPayload(5))
	assert.Len(t, echoPayload(60), 60)
	assert.Equal(t, byte('a'), echoPayload(27)[26])
}

func TestRunPing(t *testing.T) {
	s := runningStack(t)

	out := &syncBuffer{}
	err := runPing(context.Background(), out, s, net.IPv4(127, 0, 0, 1), &pingOptions{
		count:    3,
		interval: 50 * time.Millisecond,
		size:     16,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "PING 127.0.0.1: 16 data bytes", lines[0])
	assert.Contains(t, out.String(), "24 bytes from 127.0.0.1: icmp_seq=1")
	assert.Contains(t, out.String(), "3 packets transmitted, 3 received, 0.0% packet loss")
}

func TestRunPing_NoRouteKeepsSending(t *testing.T) {
	s := runningStack(t)

	out := &syncBuffer{}
	err := runPing(context.Background(), out, s, net.IPv4(198, 51, 100, 1), &pingOptions{
		count:    2,
		interval: time.Millisecond,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "icmp_seq=1: "+edustack.ErrNoRoute.Error())
	assert.Contains(t, out.String(), "icmp_seq=2: "+edustack.ErrNoRoute.Error())
	assert.Contains(t, out.String(), "2 packets transmitted, 0 received, 100.0% packet loss")
}

func TestShellCommands(t *testing.T) {
	runningStack(t)

	t.Run("InterfaceList", func(t *testing.T) {
		out, err := execShell(t, "if", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "127.0.0.1/8 brd 127.255.255.255")
	})

	t.Run("Routes", func(t *testing.T) {
		_, err := execShell(t, "route", "add", "-a", "10.0.0.0/8", "-i", "lo")
		require.NoError(t, err)

		out, err := execShell(t, "route", "get", "10.1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "10.1.2.3 via 10.1.2.3 dev lo\n", out)

		out, err = execShell(t, "route", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "10.0.0.0/8")

		// index 0 is the connected route of lo
		_, err = execShell(t, "route", "del", "0")
		assert.Error(t, err)
		_, err = execShell(t, "route", "del", "1")
		require.NoError(t, err)

		_, err = execShell(t, "route", "get", "10.1.2.3")
		assert.ErrorIs(t, err, edustack.ErrNoRoute)
	})

	t.Run("Stats", func(t *testing.T) {
		out, err := execShell(t, "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "queue overflows: 0")
	})

	t.Run("Ping", func(t *testing.T) {
		out, err := execShell(t, "ping", "127.0.0.1", "-n", "1", "-i", "50ms")
		require.NoError(t, err)
		assert.Contains(t, out, "1 packets transmitted, 1 received")
	})

	t.Run("PingWithoutHost", func(t *testing.T) {
		_, err := execShell(t, "ping")
		assert.ErrorIs(t, err, ErrTooFewArguments)
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execShell(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "v0.1.0 "))
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edustack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices:\n  - name: lo\n    type: loopback\n    address: 127.0.0.1/8\n"), 0o600))

	run := func(args ...string) (string, error) {
		out := &syncBuffer{}
		cmd := rootCommand()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "validate", "-c", path)
	require.NoError(t, err)
	assert.Equal(t, "configuration ok, 1 devices\n", out)

	out, err = run("config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: lo")
	assert.Contains(t, out, "queue_size: 64")

	out, err = run("config", "validate")
	require.NoError(t, err)
	assert.Equal(t, "configuration ok, 2 devices\n", out)

	_, err = run("config", "validate", "--log-level", "chatty")
	assert.ErrorIs(t, err, edustack.ErrInvalidConfig)
}
