package edustack

import "net"

//go:generate mockgen -destination ./internal/mocks/mock_transport_layer_handler.go -package mocks github.com/davidkroell/edustack TransportLayerHandler

// TransportLayerHandler receives the payload of a datagram addressed to
// this host, together with the interface it arrived on.
type TransportLayerHandler interface {
	Handle(payload []byte, src, dst net.IP, iface *Interface) error
}

//go:generate mockgen -destination ./internal/mocks/mock_ip_outputter.go -package mocks github.com/davidkroell/edustack IPOutputter

// IPOutputter sends a datagram. An unspecified src selects the address of
// the outgoing interface.
type IPOutputter interface {
	Output(proto IPProtocol, payload []byte, src, dst net.IP) error
}
