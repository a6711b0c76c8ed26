package edustack_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/davidkroell/edustack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := edustack.Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, edustack.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, edustack.DefaultQueueSize, cfg.QueueSize)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestConfig_DefaultsPreserveExisting(t *testing.T) {
	cfg := edustack.Config{
		LogLevel:  "debug",
		QueueSize: 8,
		Devices: []edustack.DeviceConfig{
			{Name: "eth1", Type: edustack.DeviceKindRaw},
			{Name: "eth2", Type: edustack.DeviceKindRaw, HostInterface: "enp0s3"},
		},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, "eth1", cfg.Devices[0].HostInterface)
	assert.Equal(t, "enp0s3", cfg.Devices[1].HostInterface)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := edustack.DefaultConfig()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "lo", cfg.Devices[0].Name)
	assert.Equal(t, "192.0.2.1", cfg.Devices[1].Gateway)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() edustack.Config {
		return edustack.Config{
			LogLevel:  "info",
			QueueSize: 16,
			Devices: []edustack.DeviceConfig{
				{Name: "lo", Type: edustack.DeviceKindLoopback, Address: "127.0.0.1/8"},
				{
					Name:             "tap0",
					Type:             edustack.DeviceKindTap,
					HardwareAddr:     "00:00:5e:00:53:01",
					PeerHardwareAddr: "00:00:5e:00:53:02",
					Address:          "192.0.2.2/24",
					Gateway:          "192.0.2.1",
				},
			},
		}
	}

	tests := map[string]struct {
		modify  func(cfg *edustack.Config)
		wantErr error
	}{
		"Valid": {
			modify: func(cfg *edustack.Config) {},
		},
		"UnknownLogLevel": {
			modify:  func(cfg *edustack.Config) { cfg.LogLevel = "chatty" },
			wantErr: edustack.ErrInvalidConfig,
		},
		"QueueSize": {
			modify:  func(cfg *edustack.Config) { cfg.QueueSize = -1 },
			wantErr: edustack.ErrInvalidConfig,
		},
		"NoDevices": {
			modify:  func(cfg *edustack.Config) { cfg.Devices = nil },
			wantErr: edustack.ErrInvalidConfig,
		},
		"EmptyName": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].Name = "" },
			wantErr: edustack.ErrInvalidConfig,
		},
		"DuplicateName": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[1].Name = "lo" },
			wantErr: edustack.ErrDuplicateDeviceName,
		},
		"UnknownType": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].Type = "wireless" },
			wantErr: edustack.ErrInvalidConfig,
		},
		"LoopbackWithHardwareAddr": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].HardwareAddr = "00:00:5e:00:53:09" },
			wantErr: edustack.ErrInvalidConfig,
		},
		"TapWithoutHardwareAddr": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[1].HardwareAddr = "" },
			wantErr: edustack.ErrInvalidConfig,
		},
		"MalformedHardwareAddr": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[1].PeerHardwareAddr = "00:00:5e" },
			wantErr: edustack.ErrInvalidAddress,
		},
		"MalformedAddress": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].Address = "127.0.0.1" },
			wantErr: edustack.ErrInvalidAddress,
		},
		"IPv6Address": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].Address = "::1/128" },
			wantErr: edustack.ErrNotAnIPv4Address,
		},
		"GatewayOffLink": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[1].Gateway = "198.51.100.1" },
			wantErr: edustack.ErrNextHopNotOnLinkLocalNetwork,
		},
		"MTUTooSmall": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[1].MTU = 40 },
			wantErr: edustack.ErrInvalidConfig,
		},
		"MTU": {
			modify: func(cfg *edustack.Config) { cfg.Devices[1].MTU = 1400 },
		},
		"TwoGateways": {
			modify:  func(cfg *edustack.Config) { cfg.Devices[0].Gateway = "127.0.0.2" },
			wantErr: edustack.ErrInvalidConfig,
		},
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			v.modify(&cfg)

			err := cfg.Validate()
			if v.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, v.wantErr)
		})
	}
}

func TestDeviceConfig_ParseAddress(t *testing.T) {
	d := edustack.DeviceConfig{Address: "192.0.2.2/24"}

	ipNet, err := d.ParseAddress()
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.2/24", ipNet.String())
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
log_level: debug
metrics_addr: "127.0.0.1:9100"
devices:
  - name: lo
    type: loopback
    address: 127.0.0.1/8
  - name: eth0
    type: raw
    hardware_addr: "02:00:00:00:00:01"
    address: 10.0.0.2/24
    gateway: 10.0.0.1
`)

	path := filepath.Join(t.TempDir(), "edustack.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := edustack.ParseConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, edustack.DefaultQueueSize, cfg.QueueSize)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "eth0", cfg.Devices[1].HostInterface)

	addrs, err := cfg.Devices[1].ParseHardwareAddrs()
	require.NoError(t, err)
	assert.Equal(t, "02:00:00:00:00:01", addrs.Local.String())
	assert.Nil(t, addrs.Peer)

	t.Run("RoundTrip", func(t *testing.T) {
		out, err := cfg.Marshal()
		require.NoError(t, err)

		again, err := edustack.UnmarshalConfig(out)
		require.NoError(t, err)
		assert.Equal(t, cfg, again)
	})
}

func TestParseConfig_Errors(t *testing.T) {
	_, err := edustack.ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = edustack.UnmarshalConfig([]byte("devices: {"))
	assert.ErrorIs(t, err, edustack.ErrInvalidConfig)

	_, err = edustack.UnmarshalConfig([]byte("devices: []"))
	assert.ErrorIs(t, err, edustack.ErrInvalidConfig)
}
