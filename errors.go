package edustack

import "errors"

var (
	ErrDropPdu                = errors.New("no action for given PDU found. dropping it")
	ErrNoLinkLayerHandler     = errors.New("no link layer handler for given protocol found")
	ErrNoInternetLayerHandler = errors.New("no internet layer handler for given IPProtocol found")

	ErrNotAnIPv4Address             = errors.New("ip address it not an IPv4 address")
	ErrInvalidAddress               = errors.New("invalid address")
	ErrInvalidConfig                = errors.New("invalid configuration")
	ErrInvalidInterfaceConfigString = errors.New("invalid interface config string. malformed input, should have following format: '" + InterfaceConfigFormatString + "'")

	ErrDuplicateDeviceName       = errors.New("a device with the same name is already registered")
	ErrUnknownDevice             = errors.New("device is not registered")
	ErrAlreadyAttached           = errors.New("device already has an interface for this address family")
	ErrProtocolAlreadyRegistered = errors.New("protocol is already registered")
	ErrUnknownInterface          = errors.New("interface is not registered")
	ErrStackRunning              = errors.New("stack configuration is immutable while running")
	ErrStackNotStarted           = errors.New("stack has not been started up")

	ErrNotANetworkAddress                 = errors.New("not a correct network address")
	ErrNextHopNotOnLinkLocalNetwork       = errors.New("next hop is not on local network of the outbound interface")
	ErrLinkLocalRouteShouldNotHaveNextHop = errors.New("a link-local route should not have a next hop address defined")

	ErrDeviceNotRunning   = errors.New("device is not running")
	ErrPayloadTooLarge    = errors.New("payload exceeds the device MTU")
	ErrNoRoute            = errors.New("no route to host")
	ErrSourceAddrMismatch = errors.New("source address does not belong to the outgoing interface")

	ErrInvalidHeader       = errors.New("invalid header")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrTTLExceeded         = errors.New("time to live exceeded")
	ErrFragmentUnsupported = errors.New("fragmented datagrams are not supported")
	ErrNotForThisHost      = errors.New("destination is not a local address")

	ErrQueueOverflow      = errors.New("inbound queue full. oldest frame dropped")
	ErrDispatcherShutdown = errors.New("dispatcher is shut down")
)

// ErrorKind groups errors by who has to deal with them.
type ErrorKind uint8

const (
	UnknownError ErrorKind = iota
	ConfigurationError
	ValidationError
	ResourceError
	OverflowError
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration"
	case ValidationError:
		return "validation"
	case ResourceError:
		return "resource"
	case OverflowError:
		return "overflow"
	default:
		return "unknown"
	}
}

// errorKinds is searched in order, the first match decides.
var errorKinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrNotAnIPv4Address, ConfigurationError},
	{ErrInvalidAddress, ConfigurationError},
	{ErrInvalidInterfaceConfigString, ConfigurationError},
	{ErrInvalidConfig, ConfigurationError},
	{ErrDuplicateDeviceName, ConfigurationError},
	{ErrUnknownDevice, ConfigurationError},
	{ErrAlreadyAttached, ConfigurationError},
	{ErrProtocolAlreadyRegistered, ConfigurationError},
	{ErrUnknownInterface, ConfigurationError},
	{ErrStackRunning, ConfigurationError},
	{ErrStackNotStarted, ConfigurationError},
	{ErrNotANetworkAddress, ConfigurationError},
	{ErrNextHopNotOnLinkLocalNetwork, ConfigurationError},
	{ErrLinkLocalRouteShouldNotHaveNextHop, ConfigurationError},

	{ErrDeviceNotRunning, ResourceError},
	{ErrPayloadTooLarge, ResourceError},
	{ErrNoRoute, ResourceError},
	{ErrSourceAddrMismatch, ResourceError},

	{ErrDropPdu, ValidationError},
	{ErrNoLinkLayerHandler, ValidationError},
	{ErrNoInternetLayerHandler, ValidationError},
	{ErrInvalidHeader, ValidationError},
	{ErrChecksumMismatch, ValidationError},
	{ErrTTLExceeded, ValidationError},
	{ErrFragmentUnsupported, ValidationError},
	{ErrNotForThisHost, ValidationError},

	{ErrQueueOverflow, OverflowError},
	{ErrDispatcherShutdown, OverflowError},
}

// KindOf classifies err by the first entry of errorKinds it wraps.
func KindOf(err error) ErrorKind {
	if err == nil {
		return UnknownError
	}
	for _, e := range errorKinds {
		if errors.Is(err, e.sentinel) {
			return e.kind
		}
	}
	return UnknownError
}
