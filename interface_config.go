package edustack

import (
	"fmt"
	"net"
	"strings"
)

const (
	InterfaceConfigFormatString = "interfaceName:IPv4/Mask"
)

type AddressFamily uint8

const (
	AddressFamilyIPv4 AddressFamily = 4
)

// Interface binds an IPv4 address to a device. Address and mask are fixed
// at allocation; the device relation is set once on attachment and only
// refers to the registry by ID.
type Interface struct {
	family    AddressFamily
	unicast   net.IP
	netmask   net.IPMask
	broadcast net.IP

	device   DeviceID
	attached bool
}

// AllocInterface builds an unattached interface. Host bits outside the mask
// are accepted.
func AllocInterface(addr net.IP, mask net.IPMask) (*Interface, error) {
	unicast := addr.To4()
	if unicast == nil {
		return nil, ErrNotAnIPv4Address
	}

	if len(mask) == net.IPv6len {
		if !isV4InV6Mask(mask) {
			return nil, fmt.Errorf("%w: netmask %s is not an IPv4 mask", ErrInvalidAddress, mask)
		}
		mask = mask[12:]
	}
	if _, bits := mask.Size(); bits != 8*net.IPv4len {
		return nil, fmt.Errorf("%w: netmask %s is not a contiguous IPv4 mask", ErrInvalidAddress, mask)
	}

	broadcast := make(net.IP, net.IPv4len)
	for i := range broadcast {
		broadcast[i] = unicast[i] | ^mask[i]
	}

	return &Interface{
		family:    AddressFamilyIPv4,
		unicast:   append(net.IP(nil), unicast...),
		netmask:   append(net.IPMask(nil), mask...),
		broadcast: broadcast,
		device:    -1,
	}, nil
}

// isV4InV6Mask reports whether a 16-byte mask carries an IPv4 mask in its
// last four bytes, the form net.IP.Mask accepts.
func isV4InV6Mask(mask net.IPMask) bool {
	for _, b := range mask[:12] {
		if b != 0xff {
			return false
		}
	}
	return true
}

func (i *Interface) Family() AddressFamily {
	return i.family
}

func (i *Interface) Addr() net.IP {
	return append(net.IP(nil), i.unicast...)
}

func (i *Interface) Netmask() net.IPMask {
	return append(net.IPMask(nil), i.netmask...)
}

func (i *Interface) Broadcast() net.IP {
	return append(net.IP(nil), i.broadcast...)
}

// Network returns the directly-connected network, address & mask.
func (i *Interface) Network() net.IPNet {
	return net.IPNet{
		IP:   i.unicast.Mask(i.netmask),
		Mask: i.Netmask(),
	}
}

func (i *Interface) PrefixLen() int {
	ones, _ := i.netmask.Size()
	return ones
}

func (i *Interface) Contains(ip net.IP) bool {
	ip4 := ip.To4()
	return ip4 != nil && ip4.Mask(i.netmask).Equal(i.unicast.Mask(i.netmask))
}

// Device returns the ID of the owning device, -1 before attachment.
func (i *Interface) Device() DeviceID {
	return i.device
}

func (i *Interface) Attached() bool {
	return i.attached
}

func (i *Interface) String() string {
	return fmt.Sprintf("%s/%d", i.unicast, i.PrefixLen())
}

// InterfaceConfig is the textual form "name:a.b.c.d/len" of an interface
// assignment, as used by the shell and the config file.
type InterfaceConfig struct {
	InterfaceName string
	Addr          *net.IPNet
}

func ParseInterfaceConfig(config string) (*InterfaceConfig, error) {
	splitted := strings.Split(config, ":")

	if len(splitted) != 2 {
		return nil, ErrInvalidInterfaceConfigString
	}

	name := splitted[0]
	ip, ipNet, err := net.ParseCIDR(splitted[1])

	if err != nil {
		return nil, err
	}

	ipNet.IP = ip

	return NewInterfaceConfig(name, ipNet)
}

func NewInterfaceConfig(name string, addr *net.IPNet) (*InterfaceConfig, error) {
	if addr.IP.To4() == nil {
		return nil, ErrNotAnIPv4Address
	}
	addr.IP = addr.IP.To4()

	return &InterfaceConfig{
		InterfaceName: name,
		Addr:          addr,
	}, nil
}

func (c *InterfaceConfig) Alloc() (*Interface, error) {
	return AllocInterface(c.Addr.IP, c.Addr.Mask)
}

// ParseIPv4 converts dotted decimal text into the 4 byte form.
func ParseIPv4(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotAnIPv4Address, s)
	}
	return ip4, nil
}

func isUnspecified(ip net.IP) bool {
	return ip == nil || ip.Equal(net.IPv4zero)
}
