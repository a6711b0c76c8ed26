package edustack

import (
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// IcmpMessageHandler receives the ICMP messages not answered by the stack
// itself. msg.Data is only valid during the call.
type IcmpMessageHandler func(msg *ICMPPacket, src, dst net.IP, iface *Interface)

// IcmpHandler answers echo requests and hands every other message to the
// registered message handler.
type IcmpHandler struct {
	ip  IPOutputter
	log zerolog.Logger

	mu        sync.RWMutex
	onMessage IcmpMessageHandler
}

func NewIcmpHandler(ip IPOutputter, logger zerolog.Logger) *IcmpHandler {
	return &IcmpHandler{
		ip:  ip,
		log: logger.With().Str("component", "icmp").Logger(),
	}
}

func (i *IcmpHandler) SetMessageHandler(h IcmpMessageHandler) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onMessage = h
}

// Output sends an ICMP message. Errors of the IP layer are returned as is.
func (i *IcmpHandler) Output(kind IcmpType, code uint8, id, seq uint16, data []byte, src, dst net.IP) error {
	b, err := BuildEcho(kind, code, id, seq, data)
	if err != nil {
		return err
	}

	return i.ip.Output(IPProtocolICMPv4, b, src, dst)
}

func (i *IcmpHandler) Handle(payload []byte, src, dst net.IP, iface *Interface) error {
	var icmpPacket ICMPPacket

	err := (&icmpPacket).UnmarshalBinary(payload)
	if err != nil {
		return err
	}

	i.log.Debug().Msgf("%s > %s: %s id=%d seq=%d, %d bytes", src, dst, icmpPacket.IcmpType, icmpPacket.Id, icmpPacket.Seq, len(icmpPacket.Data))

	if icmpPacket.IcmpType == IcmpTypeEchoRequest {
		icmpPacket.MakeResponse()

		// requests to a broadcast are answered from the address of the
		// outgoing interface
		var replySrc net.IP
		if dst.Equal(iface.Addr()) {
			replySrc = dst
		}
		return i.Output(icmpPacket.IcmpType, icmpPacket.IcmpCode, icmpPacket.Id, icmpPacket.Seq, icmpPacket.Data, replySrc, src)
	}

	i.mu.RLock()
	onMessage := i.onMessage
	i.mu.RUnlock()

	if onMessage == nil {
		return ErrDropPdu
	}

	onMessage(&icmpPacket, src, dst, iface)
	return nil
}

// EchoSession numbers the echo requests of one ping run. Identifier and
// sequence number are independent 16 bit fields.
type EchoSession struct {
	ID uint16

	mu  sync.Mutex
	seq uint16
}

func NewEchoSession(id uint16) *EchoSession {
	return &EchoSession{ID: id}
}

// Next returns the identifier and the next sequence number, starting at 1
// and wrapping around.
func (e *EchoSession) Next() (uint16, uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	return e.ID, e.seq
}
