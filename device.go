package edustack

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/mdlayher/ethernet"
)

//go:generate mockgen -destination ./internal/mocks/mock_backend.go -package mocks github.com/davidkroell/edustack Backend

// Backend performs the hardware specific I/O of a device. Frames handed to
// Send and returned by Receive are complete link layer frames.
type Backend interface {
	Open() error
	Close() error
	// Receive blocks until a frame is read into b or ctx is done.
	Receive(ctx context.Context, b []byte) (int, error)
	Send(b []byte) error
}

// ProtocolID identifies the payload of a link layer frame.
type ProtocolID = ethernet.EtherType

const (
	ProtocolIPv4 ProtocolID = ethernet.EtherTypeIPv4
	ProtocolARP  ProtocolID = ethernet.EtherTypeARP
	ProtocolIPv6 ProtocolID = ethernet.EtherTypeIPv6
)

type DeviceType uint8

const (
	DeviceTypeLoopback DeviceType = iota + 1
	DeviceTypeEthernet
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeLoopback:
		return "loopback"
	case DeviceTypeEthernet:
		return "ethernet"
	default:
		return "unknown"
	}
}

type DeviceFlags uint32

const (
	DeviceFlagUp DeviceFlags = 1 << iota
	DeviceFlagLoopback
	DeviceFlagBroadcast
	DeviceFlagPointToPoint
	// DeviceFlagNeedsARP marks devices whose next hops need address
	// resolution. No resolution is done, frames go to the peer or the
	// broadcast address.
	DeviceFlagNeedsARP
)

func (f DeviceFlags) Has(flag DeviceFlags) bool {
	return f&flag == flag
}

func (f DeviceFlags) String() string {
	s := ""
	for _, e := range []struct {
		flag DeviceFlags
		name string
	}{
		{DeviceFlagUp, "UP"},
		{DeviceFlagLoopback, "LOOPBACK"},
		{DeviceFlagBroadcast, "BROADCAST"},
		{DeviceFlagPointToPoint, "POINTOPOINT"},
		{DeviceFlagNeedsARP, "ARP"},
	} {
		if f.Has(e.flag) {
			if s != "" {
				s += ","
			}
			s += e.name
		}
	}
	return s
}

const (
	LoopbackMTU = IPv4MaxTotalLen
	EthernetMTU = 1500
)

// DeviceStats are the per device frame counters.
type DeviceStats struct {
	Name         string
	Type         DeviceType
	MTU          int
	Flags        DeviceFlags
	HardwareAddr net.HardwareAddr
	Interfaces   []string
	RxFrames     uint64
	TxFrames     uint64
	RxErrors     uint64
	TxErrors     uint64
	RxBytes      uint64
	TxBytes      uint64
}

// Device is a network device as seen by the stack. Name, type, MTU and
// addresses must not change after registration.
type Device struct {
	Name             string
	Type             DeviceType
	MTU              int
	HardwareAddr     net.HardwareAddr
	PeerHardwareAddr net.HardwareAddr

	id      DeviceID
	flags   atomic.Uint32
	backend Backend
	framer  linkFramer

	// tx serializes Send calls on the backend
	tx sync.Mutex

	ifaceMu sync.RWMutex
	ifaces  []*Interface

	rxFrames, txFrames atomic.Uint64
	rxErrors, txErrors atomic.Uint64
	rxBytes, txBytes   atomic.Uint64
}

func NewLoopbackDevice(name string, backend Backend) *Device {
	d := &Device{
		Name:    name,
		Type:    DeviceTypeLoopback,
		MTU:     LoopbackMTU,
		id:      -1,
		backend: backend,
		framer:  loopbackFramer{},
	}
	d.flags.Store(uint32(DeviceFlagLoopback))
	return d
}

// NewEthernetDevice creates an Ethernet device. With a peer address set,
// every frame is sent to the peer; otherwise frames go to the broadcast
// address since no address resolution is done.
func NewEthernetDevice(name string, hwAddr, peer net.HardwareAddr, backend Backend) *Device {
	d := &Device{
		Name:             name,
		Type:             DeviceTypeEthernet,
		MTU:              EthernetMTU,
		HardwareAddr:     hwAddr,
		PeerHardwareAddr: peer,
		id:               -1,
		backend:          backend,
		framer:           ethernetFramer{},
	}
	flags := DeviceFlagBroadcast | DeviceFlagNeedsARP
	if peer != nil {
		flags |= DeviceFlagPointToPoint
	}
	d.flags.Store(uint32(flags))
	return d
}

func (d *Device) ID() DeviceID {
	return d.id
}

func (d *Device) Flags() DeviceFlags {
	return DeviceFlags(d.flags.Load())
}

func (d *Device) IsUp() bool {
	return d.Flags().Has(DeviceFlagUp)
}

// Interface returns the interface of the given family or nil.
func (d *Device) Interface(family AddressFamily) *Interface {
	d.ifaceMu.RLock()
	defer d.ifaceMu.RUnlock()

	for _, i := range d.ifaces {
		if i.family == family {
			return i
		}
	}
	return nil
}

func (d *Device) Interfaces() []*Interface {
	d.ifaceMu.RLock()
	defer d.ifaceMu.RUnlock()

	r := make([]*Interface, len(d.ifaces))
	copy(r, d.ifaces)
	return r
}

func (d *Device) Stats() DeviceStats {
	ifaces := make([]string, 0)
	for _, i := range d.Interfaces() {
		ifaces = append(ifaces, i.String())
	}

	return DeviceStats{
		Name:         d.Name,
		Type:         d.Type,
		MTU:          d.MTU,
		Flags:        d.Flags(),
		HardwareAddr: d.HardwareAddr,
		Interfaces:   ifaces,
		RxFrames:     d.rxFrames.Load(),
		TxFrames:     d.txFrames.Load(),
		RxErrors:     d.rxErrors.Load(),
		TxErrors:     d.txErrors.Load(),
		RxBytes:      d.rxBytes.Load(),
		TxBytes:      d.txBytes.Load(),
	}
}

func (d *Device) attach(iface *Interface) error {
	d.ifaceMu.Lock()
	defer d.ifaceMu.Unlock()

	for _, i := range d.ifaces {
		if i.family == iface.family {
			return ErrAlreadyAttached
		}
	}

	iface.device = d.id
	iface.attached = true
	d.ifaces = append(d.ifaces, iface)
	return nil
}

func (d *Device) open() error {
	if d.IsUp() {
		return nil
	}
	if err := d.backend.Open(); err != nil {
		return err
	}
	d.setFlag(DeviceFlagUp, true)
	return nil
}

func (d *Device) close() error {
	if !d.IsUp() {
		return nil
	}
	d.setFlag(DeviceFlagUp, false)
	return d.backend.Close()
}

func (d *Device) setFlag(flag DeviceFlags, on bool) {
	for {
		old := d.flags.Load()
		updated := old &^ uint32(flag)
		if on {
			updated = old | uint32(flag)
		}
		if d.flags.CompareAndSwap(old, updated) {
			return
		}
	}
}

func (d *Device) transmit(proto ProtocolID, payload []byte) error {
	if !d.IsUp() {
		return ErrDeviceNotRunning
	}
	if len(payload) > d.MTU {
		return ErrPayloadTooLarge
	}

	frame, err := d.framer.frame(d, proto, payload)
	if err != nil {
		d.txErrors.Add(1)
		return err
	}

	d.tx.Lock()
	err = d.backend.Send(frame)
	d.tx.Unlock()

	if err != nil {
		d.txErrors.Add(1)
		return err
	}

	d.txFrames.Add(1)
	d.txBytes.Add(uint64(len(frame)))
	return nil
}

// receiveBufferSize fits the largest frame the device accepts.
func (d *Device) receiveBufferSize() int {
	return d.MTU + d.framer.overhead()
}
