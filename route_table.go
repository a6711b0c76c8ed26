package edustack

import (
	"fmt"
	"net"
	"sort"
	"sync"
)

type RouteType uint8

const (
	ConnectedRouteType RouteType = iota
	StaticRouteType
	DefaultRouteType
)

func (r RouteType) String() string {
	switch r {
	case ConnectedRouteType:
		return "C"
	case StaticRouteType:
		return "S"
	case DefaultRouteType:
		return "S*"
	default:
		return ""
	}
}

type RouteInfo struct {
	RouteType    RouteType
	DstNet       net.IPNet
	OutInterface *Interface
	NextHop      *net.IP
}

func (ri *RouteInfo) PrefixLen() int {
	ones, _ := ri.DstNet.Mask.Size()
	return ones
}

// NextHopFor returns the address the datagram for dst is handed to, the
// gateway if there is one, dst otherwise.
func (ri *RouteInfo) NextHopFor(dst net.IP) net.IP {
	if ri.NextHop != nil {
		return *ri.NextHop
	}
	return dst
}

func (ri *RouteInfo) String() string {
	via := "directly connected"
	if ri.NextHop != nil {
		via = "via " + ri.NextHop.String()
	}
	return fmt.Sprintf("%-2s %s %s, %s", ri.RouteType, ri.DstNet.String(), via, ri.OutInterface)
}

// RouteTable holds the connected and static routes sorted by prefix length,
// longest first, plus at most one default route.
type RouteTable struct {
	configuredRoutes []RouteInfo
	defaultRoute     *RouteInfo
	mu               sync.RWMutex
}

func NewRouteTable() *RouteTable {
	return &RouteTable{
		configuredRoutes: make([]RouteInfo, 0),
	}
}

func (table *RouteTable) AddRoute(config RouteInfo) error {
	if err := validateRoute(&config); err != nil {
		return err
	}

	table.mu.Lock()
	defer table.mu.Unlock()

	if config.RouteType == DefaultRouteType {
		table.defaultRoute = &config
		return nil
	}

	table.configuredRoutes = append(table.configuredRoutes, config)

	// stable keeps the registration order among equal prefixes
	sort.SliceStable(table.configuredRoutes, func(i, j int) bool {
		return table.configuredRoutes[i].PrefixLen() > table.configuredRoutes[j].PrefixLen()
	})
	return nil
}

func validateRoute(config *RouteInfo) error {
	if config.OutInterface == nil {
		return ErrUnknownInterface
	}

	dstIP := config.DstNet.IP.To4()
	if dstIP == nil {
		return ErrNotAnIPv4Address
	}
	if _, bits := config.DstNet.Mask.Size(); bits != 8*net.IPv4len {
		return ErrNotANetworkAddress
	}
	if !dstIP.Mask(config.DstNet.Mask).Equal(dstIP) {
		return ErrNotANetworkAddress
	}
	config.DstNet.IP = dstIP

	if config.PrefixLen() == 0 && config.RouteType == StaticRouteType {
		config.RouteType = DefaultRouteType
	}

	switch config.RouteType {
	case ConnectedRouteType:
		if config.NextHop != nil {
			return ErrLinkLocalRouteShouldNotHaveNextHop
		}
	case StaticRouteType, DefaultRouteType:
		if config.NextHop == nil {
			break
		}
		nextHop := config.NextHop.To4()
		if nextHop == nil {
			return ErrNotAnIPv4Address
		}
		if !config.OutInterface.Contains(nextHop) {
			return ErrNextHopNotOnLinkLocalNetwork
		}
		config.NextHop = &nextHop
	}
	return nil
}

// SetDefaultRoute replaces the default route with one via gateway.
func (table *RouteTable) SetDefaultRoute(iface *Interface, gateway net.IP) error {
	return table.AddRoute(RouteInfo{
		RouteType: DefaultRouteType,
		DstNet: net.IPNet{
			IP:   net.IPv4zero.To4(),
			Mask: net.CIDRMask(0, 8*net.IPv4len),
		},
		OutInterface: iface,
		NextHop:      &gateway,
	})
}

func (table *RouteTable) ClearDefaultRoute() {
	table.mu.Lock()
	defer table.mu.Unlock()

	table.defaultRoute = nil
}

func (table *RouteTable) DefaultRoute() *RouteInfo {
	table.mu.RLock()
	defer table.mu.RUnlock()

	if table.defaultRoute == nil {
		return nil
	}
	ri := *table.defaultRoute
	return &ri
}

// GetRoutes returns all routes in lookup order, the default route last.
func (table *RouteTable) GetRoutes() []RouteInfo {
	table.mu.RLock()
	defer table.mu.RUnlock()

	r := make([]RouteInfo, len(table.configuredRoutes), len(table.configuredRoutes)+1)

	copy(r, table.configuredRoutes)
	if table.defaultRoute != nil {
		r = append(r, *table.defaultRoute)
	}
	return r
}

// DeleteRouteAtIndex removes a route by its GetRoutes index. Connected
// routes are kept.
func (table *RouteTable) DeleteRouteAtIndex(index uint32) error {
	table.mu.Lock()
	defer table.mu.Unlock()

	i := int(index)
	switch {
	case i < len(table.configuredRoutes):
		if table.configuredRoutes[i].RouteType == ConnectedRouteType {
			return fmt.Errorf("%w: connected routes follow their interface", ErrInvalidAddress)
		}
		// ensure ordering to skip sorting afterwards
		table.configuredRoutes = append(table.configuredRoutes[:i], table.configuredRoutes[i+1:]...)
	case i == len(table.configuredRoutes) && table.defaultRoute != nil:
		table.defaultRoute = nil
	default:
		return ErrNoRoute
	}
	return nil
}

// Lookup selects the route for dst by longest prefix match, falling back to
// the default route.
func (table *RouteTable) Lookup(dst net.IP) (*RouteInfo, error) {
	dst4 := dst.To4()
	if dst4 == nil {
		return nil, ErrNotAnIPv4Address
	}

	table.mu.RLock()
	defer table.mu.RUnlock()

	for _, ri := range table.configuredRoutes {
		if dst4.Mask(ri.DstNet.Mask).Equal(ri.DstNet.IP) {
			// dst ip is inside this configured route table entries destination network
			return &ri, nil
		}
	}

	if table.defaultRoute != nil {
		ri := *table.defaultRoute
		return &ri, nil
	}

	return nil, ErrNoRoute
}
