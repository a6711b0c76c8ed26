package edustack

import (
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	DeviceKindLoopback = "loopback"
	DeviceKindTap      = "tap"
	DeviceKindRaw      = "raw"

	// minMTU is the smallest MTU every IPv4 link has to support.
	minMTU = 68
)

// Config describes the devices and addresses of a stack. It is populated
// from a YAML file via ParseConfig.
type Config struct {
	// LogLevel is one of the zerolog level names.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// QueueSize bounds every protocol queue of the dispatcher.
	// Default: DefaultQueueSize
	QueueSize int `yaml:"queue_size"`

	// MetricsAddr is the listen address of the Prometheus endpoint,
	// disabled when empty.
	MetricsAddr string `yaml:"metrics_addr"`

	Devices []DeviceConfig `yaml:"devices"`
}

type DeviceConfig struct {
	Name string `yaml:"name"`

	// Type is "loopback", "tap" or "raw".
	Type string `yaml:"type"`

	// HostInterface is the host interface a raw device binds to.
	// Default: Name
	HostInterface string `yaml:"host_interface,omitempty"`

	// MTU overrides the default MTU of the device type.
	MTU int `yaml:"mtu,omitempty"`

	HardwareAddr     string `yaml:"hardware_addr,omitempty"`
	PeerHardwareAddr string `yaml:"peer_hardware_addr,omitempty"`

	// QueueLimit bounds the frames in flight on a loopback device.
	QueueLimit int `yaml:"queue_limit,omitempty"`

	// Address is the interface address in CIDR notation.
	Address string `yaml:"address"`

	// Gateway makes this device the default route.
	Gateway string `yaml:"gateway,omitempty"`
}

// DefaultConfig is a loopback device and a TAP device with a default
// gateway, the setup of the demo.
func DefaultConfig() *Config {
	cfg := &Config{
		Devices: []DeviceConfig{
			{
				Name:    "lo",
				Type:    DeviceKindLoopback,
				Address: "127.0.0.1/8",
			},
			{
				Name:         "tap0",
				Type:         DeviceKindTap,
				HardwareAddr: "00:00:5e:00:53:01",
				Address:      "192.0.2.2/24",
				Gateway:      "192.0.2.1",
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Type == DeviceKindRaw && d.HostInterface == "" {
			d.HostInterface = d.Name
		}
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("%w: at least one device is required", ErrInvalidConfig)
	}

	names := make(map[string]struct{}, len(c.Devices))
	gateways := 0
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Name == "" {
			return fmt.Errorf("%w: devices[%d]: name must not be empty", ErrInvalidConfig, i)
		}
		if _, ok := names[d.Name]; ok {
			return fmt.Errorf("%w: devices[%d]: %s", ErrDuplicateDeviceName, i, d.Name)
		}
		names[d.Name] = struct{}{}

		if err := d.validate(); err != nil {
			return fmt.Errorf("devices[%d] %s: %w", i, d.Name, err)
		}
		if d.Gateway != "" {
			gateways++
		}
	}

	if gateways > 1 {
		return fmt.Errorf("%w: only one device may define a gateway", ErrInvalidConfig)
	}
	return nil
}

func (d *DeviceConfig) validate() error {
	if d.MTU != 0 && (d.MTU < minMTU || d.MTU > IPv4MaxTotalLen) {
		return fmt.Errorf("%w: mtu %d out of range", ErrInvalidConfig, d.MTU)
	}

	switch d.Type {
	case DeviceKindLoopback:
		if d.HardwareAddr != "" || d.PeerHardwareAddr != "" {
			return fmt.Errorf("%w: loopback devices have no hardware address", ErrInvalidConfig)
		}
	case DeviceKindTap, DeviceKindRaw:
		if _, err := d.ParseHardwareAddrs(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown device type %q", ErrInvalidConfig, d.Type)
	}

	ipNet, err := d.ParseAddress()
	if err != nil {
		return err
	}

	if d.Gateway != "" {
		gw, err := ParseIPv4(d.Gateway)
		if err != nil {
			return err
		}
		if !ipNet.Contains(gw) {
			return ErrNextHopNotOnLinkLocalNetwork
		}
	}
	return nil
}

// ParseAddress returns the interface address with the host part intact.
func (d *DeviceConfig) ParseAddress() (*net.IPNet, error) {
	ip, ipNet, err := net.ParseCIDR(d.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", ErrInvalidAddress, err)
	}
	if ip.To4() == nil {
		return nil, ErrNotAnIPv4Address
	}
	ipNet.IP = ip.To4()
	return ipNet, nil
}

type HardwareAddrs struct {
	Local net.HardwareAddr
	Peer  net.HardwareAddr
}

func (d *DeviceConfig) ParseHardwareAddrs() (HardwareAddrs, error) {
	var addrs HardwareAddrs

	if d.HardwareAddr == "" {
		return addrs, fmt.Errorf("%w: hardware_addr is required", ErrInvalidConfig)
	}

	local, err := net.ParseMAC(d.HardwareAddr)
	if err != nil {
		return addrs, fmt.Errorf("%w: hardware_addr: %v", ErrInvalidAddress, err)
	}
	addrs.Local = local

	if d.PeerHardwareAddr != "" {
		peer, err := net.ParseMAC(d.PeerHardwareAddr)
		if err != nil {
			return addrs, fmt.Errorf("%w: peer_hardware_addr: %v", ErrInvalidAddress, err)
		}
		addrs.Peer = peer
	}
	return addrs, nil
}

// ParseConfig reads a YAML configuration file, applies defaults and
// validates it.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return UnmarshalConfig(data)
}

func UnmarshalConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
