package edustack

import (
	"fmt"
	"net"
	"sync"
)

// DeviceID is the registry handle of a device, its registration index.
type DeviceID int

func (id DeviceID) String() string {
	return fmt.Sprintf("dev%d", int(id))
}

// DeviceRegistry owns all devices of a stack. Devices are never removed.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices []*Device
	metrics *Metrics
}

func NewDeviceRegistry(metrics *Metrics) *DeviceRegistry {
	return &DeviceRegistry{
		devices: make([]*Device, 0),
		metrics: metrics,
	}
}

func (r *DeviceRegistry) Register(dev *Device) (DeviceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		if d.Name == dev.Name {
			return -1, fmt.Errorf("%w: %s", ErrDuplicateDeviceName, dev.Name)
		}
	}

	dev.id = DeviceID(len(r.devices))
	r.devices = append(r.devices, dev)
	return dev.id, nil
}

func (r *DeviceRegistry) Device(id DeviceID) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || int(id) >= len(r.devices) {
		return nil, ErrUnknownDevice
	}
	return r.devices[id], nil
}

func (r *DeviceRegistry) DeviceByName(name string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrUnknownDevice
}

// Devices returns all devices in registration order.
func (r *DeviceRegistry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, len(r.devices))
	copy(devices, r.devices)
	return devices
}

// AttachInterface binds iface to the device. A device holds at most one
// interface per address family and an interface belongs to one device.
func (r *DeviceRegistry) AttachInterface(id DeviceID, iface *Interface) error {
	dev, err := r.Device(id)
	if err != nil {
		return err
	}

	if iface.attached {
		return ErrAlreadyAttached
	}

	return dev.attach(iface)
}

// Transmit hands payload to the device for transmission. Concurrent calls
// for the same device are serialized.
func (r *DeviceRegistry) Transmit(id DeviceID, proto ProtocolID, payload []byte) error {
	dev, err := r.Device(id)
	if err != nil {
		return err
	}
	if err := dev.transmit(proto, payload); err != nil {
		return err
	}
	r.metrics.frameTransmitted(dev.Name)
	return nil
}

// LookupByAddress returns the attached interface whose network contains
// addr. The longest prefix wins, ties go to the first registered one.
func (r *DeviceRegistry) LookupByAddress(addr net.IP) *Interface {
	var best *Interface

	for _, d := range r.Devices() {
		for _, i := range d.Interfaces() {
			if !i.Contains(addr) {
				continue
			}
			if best == nil || i.PrefixLen() > best.PrefixLen() {
				best = i
			}
		}
	}
	return best
}

// OwnsAddress reports whether addr is the unicast address of any attached
// interface.
func (r *DeviceRegistry) OwnsAddress(addr net.IP) bool {
	for _, d := range r.Devices() {
		for _, i := range d.Interfaces() {
			if i.unicast.Equal(addr) {
				return true
			}
		}
	}
	return false
}
