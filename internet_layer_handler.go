package edustack

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Internetv4LayerHandler is the IPv4 layer. It owns the interfaces and the
// route table, builds outbound datagrams and delivers inbound ones to the
// registered upper layer protocols.
type Internetv4LayerHandler struct {
	devices               *DeviceRegistry
	dispatcher            *Dispatcher
	internetLayerStrategy InternetLayerStrategy
	routeTable            *RouteTable
	metrics               *Metrics
	log                   zerolog.Logger

	mu         sync.RWMutex
	interfaces []*Interface
	registered bool

	identification atomic.Uint32
}

func NewInternetLayerHandler(devices *DeviceRegistry, dispatcher *Dispatcher, internetLayerStrategy InternetLayerStrategy, routeTable *RouteTable, metrics *Metrics, logger zerolog.Logger) *Internetv4LayerHandler {
	return &Internetv4LayerHandler{
		devices:               devices,
		dispatcher:            dispatcher,
		internetLayerStrategy: internetLayerStrategy,
		routeTable:            routeTable,
		metrics:               metrics,
		log:                   logger.With().Str("component", "ipv4").Logger(),
	}
}

func (nll *Internetv4LayerHandler) RegisterProtocol(ipProto IPProtocol, handler TransportLayerHandler) error {
	return nll.internetLayerStrategy.Register(ipProto, handler)
}

// RegisterInterface attaches iface to the device, adds the connected route
// and, on first use, registers IPv4 with the dispatcher.
func (nll *Internetv4LayerHandler) RegisterInterface(dev DeviceID, iface *Interface) error {
	nll.mu.Lock()
	defer nll.mu.Unlock()

	if !nll.registered {
		if err := nll.dispatcher.RegisterProtocol(ProtocolIPv4, NewIPv4LinkLayerHandler(nll)); err != nil {
			return err
		}
		nll.registered = true
	}

	if err := nll.devices.AttachInterface(dev, iface); err != nil {
		return err
	}

	err := nll.routeTable.AddRoute(RouteInfo{
		RouteType:    ConnectedRouteType,
		DstNet:       iface.Network(),
		OutInterface: iface,
	})
	if err != nil {
		return err
	}

	nll.interfaces = append(nll.interfaces, iface)
	nll.log.Info().Msgf("registered interface %s on %s", iface, dev)
	return nil
}

func (nll *Internetv4LayerHandler) isRegistered(iface *Interface) bool {
	nll.mu.RLock()
	defer nll.mu.RUnlock()

	for _, i := range nll.interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

func (nll *Internetv4LayerHandler) Interfaces() []*Interface {
	nll.mu.RLock()
	defer nll.mu.RUnlock()

	r := make([]*Interface, len(nll.interfaces))
	copy(r, nll.interfaces)
	return r
}

// interfaceByAddr finds the interface owning the unicast address.
func (nll *Internetv4LayerHandler) interfaceByAddr(addr net.IP) *Interface {
	nll.mu.RLock()
	defer nll.mu.RUnlock()

	for _, i := range nll.interfaces {
		if i.unicast.Equal(addr) {
			return i
		}
	}
	return nil
}

// SetDefaultGateway routes all otherwise unroutable datagrams through
// gateway, which must be on the network of iface.
func (nll *Internetv4LayerHandler) SetDefaultGateway(iface *Interface, gateway net.IP) error {
	if iface == nil || !nll.isRegistered(iface) {
		return ErrUnknownInterface
	}

	gw := gateway.To4()
	if gw == nil {
		return ErrNotAnIPv4Address
	}

	if err := nll.routeTable.SetDefaultRoute(iface, gw); err != nil {
		return err
	}
	nll.log.Info().Msgf("default gateway %s via %s", gw, iface)
	return nil
}

func (nll *Internetv4LayerHandler) ClearDefaultGateway() {
	nll.routeTable.ClearDefaultRoute()
}

// AddRoute adds a static route over a registered interface.
func (nll *Internetv4LayerHandler) AddRoute(ri RouteInfo) error {
	if ri.OutInterface == nil || !nll.isRegistered(ri.OutInterface) {
		return ErrUnknownInterface
	}
	if ri.RouteType == ConnectedRouteType {
		ri.RouteType = StaticRouteType
	}
	return nll.routeTable.AddRoute(ri)
}

func (nll *Internetv4LayerHandler) RouteLookup(dst net.IP) (*RouteInfo, error) {
	return nll.routeTable.Lookup(dst)
}

func (nll *Internetv4LayerHandler) Routes() []RouteInfo {
	return nll.routeTable.GetRoutes()
}

// Output sends payload as one IPv4 datagram.
func (nll *Internetv4LayerHandler) Output(proto IPProtocol, payload []byte, src, dst net.IP) error {
	dst4 := dst.To4()
	if dst4 == nil {
		return ErrNotAnIPv4Address
	}

	var src4 net.IP
	if !isUnspecified(src) {
		if src4 = src.To4(); src4 == nil {
			return ErrNotAnIPv4Address
		}
	}

	var iface *Interface
	nextHop := dst4

	if dst4.Equal(net.IPv4bcast) {
		// the limited broadcast is not routable, the source picks the interface
		if src4 == nil {
			return fmt.Errorf("%w: source address required for %s", ErrInvalidAddress, dst4)
		}
		if iface = nll.interfaceByAddr(src4); iface == nil {
			return ErrSourceAddrMismatch
		}
	} else {
		ri, err := nll.routeTable.Lookup(dst4)
		if err != nil {
			return err
		}
		iface = ri.OutInterface
		nextHop = ri.NextHopFor(dst4)
	}

	if src4 == nil {
		src4 = iface.Addr()
	} else if !src4.Equal(iface.unicast) {
		return fmt.Errorf("%w: %s is not the address of %s", ErrSourceAddrMismatch, src4, iface)
	}

	packet := NewIPv4Pdu(src4, dst4, proto, payload)
	packet.Identification = uint16(nll.identification.Add(1))

	b, err := packet.MarshalBinary()
	if err != nil {
		return err
	}

	if err := nll.devices.Transmit(iface.device, ProtocolIPv4, b); err != nil {
		return err
	}

	nll.metrics.datagram("out", proto)
	nll.log.Debug().Msgf("sent %s %s > %s via %s, %d bytes", proto, src4, dst4, nextHop, len(b))
	return nil
}

// Handle delivers a validated inbound datagram received on in.
func (nll *Internetv4LayerHandler) Handle(packet *IPv4Pdu, in *Interface) error {
	if packet.IsFragment() {
		return ErrFragmentUnsupported
	}

	if !nll.isLocal(packet.DstIP, in) {
		return fmt.Errorf("%w: %s", ErrNotForThisHost, packet.DstIP)
	}

	nextHandler, err := nll.internetLayerStrategy.GetHandler(packet.Protocol)
	if err != nil {
		return fmt.Errorf("%w: %s", err, packet.Protocol)
	}

	nll.metrics.datagram("in", packet.Protocol)
	return nextHandler.Handle(packet.Payload, packet.SrcIP, packet.DstIP, in)
}

// isLocal accepts the unicast and broadcast address of the receiving
// interface, the limited broadcast and any other local unicast address.
func (nll *Internetv4LayerHandler) isLocal(dst net.IP, in *Interface) bool {
	switch {
	case dst.Equal(in.unicast), dst.Equal(in.broadcast), dst.Equal(net.IPv4bcast):
		return true
	default:
		return nll.interfaceByAddr(dst) != nil
	}
}
