package edustack

import (
	"encoding/binary"
	"fmt"
	"net"
)

type IPProtocol uint8

const (
	IPProtocolICMPv4 IPProtocol = 1
	IPProtocolTCP    IPProtocol = 6
	IPProtocolUDP    IPProtocol = 17
)

func (p IPProtocol) String() string {
	switch p {
	case IPProtocolICMPv4:
		return "ICMP"
	case IPProtocolTCP:
		return "TCP"
	case IPProtocolUDP:
		return "UDP"
	default:
		return fmt.Sprintf("IPProtocol(%d)", uint8(p))
	}
}

const (
	IPv4Version      = 4
	IPv4HeaderMinLen = 20
	IPv4HeaderMaxLen = 60
	IPv4MaxTotalLen  = 0xffff
	DefaultTTL       = 64

	ipv4FlagMoreFragments  = 0b001
	ipv4FragmentOffsetMask = 0x1fff
)

type IPv4Pdu struct {
	Version        uint8
	IHL            uint8
	TOS            uint8
	TotalLength    uint16
	Identification uint16
	Flags          uint8
	FragmentOffset uint16
	TTL            uint8
	Protocol       IPProtocol
	HeaderChecksum uint16
	SrcIP          net.IP
	DstIP          net.IP
	Options        []byte
	Payload        []byte
}

func NewIPv4Pdu(srcIP, dstIP net.IP, protocol IPProtocol, payload []byte) *IPv4Pdu {
	return &IPv4Pdu{
		Version:  IPv4Version,
		IHL:      IPv4HeaderMinLen / 4,
		TTL:      DefaultTTL,
		Protocol: protocol,
		SrcIP:    srcIP.To4(),
		DstIP:    dstIP.To4(),
		Payload:  payload,
	}
}

// HeaderLen returns the header length in bytes as announced by IHL.
func (p *IPv4Pdu) HeaderLen() int {
	return int(p.IHL) * 4
}

func (p *IPv4Pdu) IsFragment() bool {
	return p.Flags&ipv4FlagMoreFragments != 0 || p.FragmentOffset != 0
}

// MarshalBinary serializes the datagram. IHL, TotalLength and HeaderChecksum
// are recomputed and written back into p.
func (p *IPv4Pdu) MarshalBinary() ([]byte, error) {
	if len(p.SrcIP.To4()) != net.IPv4len || len(p.DstIP.To4()) != net.IPv4len {
		return nil, ErrNotAnIPv4Address
	}

	// options are padded to a multiple of 32 bits
	headerLen := IPv4HeaderMinLen + (len(p.Options)+3)/4*4
	if headerLen > IPv4HeaderMaxLen {
		return nil, fmt.Errorf("%w: %d bytes of options", ErrInvalidHeader, len(p.Options))
	}

	totalLen := headerLen + len(p.Payload)
	if totalLen > IPv4MaxTotalLen {
		return nil, fmt.Errorf("%w: datagram of %d bytes", ErrPayloadTooLarge, totalLen)
	}

	if p.Version == 0 {
		p.Version = IPv4Version
	}
	p.IHL = uint8(headerLen / 4)
	p.TotalLength = uint16(totalLen)

	b := make([]byte, totalLen)
	b[0] = p.Version<<4 | p.IHL&0x0f
	b[1] = p.TOS
	binary.BigEndian.PutUint16(b[2:4], p.TotalLength)
	binary.BigEndian.PutUint16(b[4:6], p.Identification)
	binary.BigEndian.PutUint16(b[6:8], uint16(p.Flags&0b111)<<13 | p.FragmentOffset&ipv4FragmentOffsetMask)
	b[8] = p.TTL
	b[9] = uint8(p.Protocol)
	copy(b[12:16], p.SrcIP.To4())
	copy(b[16:20], p.DstIP.To4())
	copy(b[IPv4HeaderMinLen:headerLen], p.Options)

	p.HeaderChecksum = onesComplementChecksum(b[:headerLen])
	binary.BigEndian.PutUint16(b[10:12], p.HeaderChecksum)

	copy(b[headerLen:], p.Payload)
	return b, nil
}

// UnmarshalBinary decodes and validates a datagram. Checks run in the order
// version, header length, total length, header checksum, time to live.
// Payload is trimmed to the announced total length and aliases b.
func (p *IPv4Pdu) UnmarshalBinary(b []byte) error {
	if len(b) < IPv4HeaderMinLen {
		return fmt.Errorf("%w: datagram too short (%d bytes)", ErrInvalidHeader, len(b))
	}

	// version and IHL share first byte
	version := b[0] >> 4
	if version != IPv4Version {
		return fmt.Errorf("%w: version %d", ErrInvalidHeader, version)
	}

	ihl := b[0] & 0x0f
	headerLen := int(ihl) * 4
	if headerLen < IPv4HeaderMinLen || headerLen > len(b) {
		return fmt.Errorf("%w: header length %d", ErrInvalidHeader, headerLen)
	}

	totalLen := int(binary.BigEndian.Uint16(b[2:4]))
	if totalLen < headerLen || totalLen > len(b) {
		return fmt.Errorf("%w: total length %d with %d bytes received", ErrInvalidHeader, totalLen, len(b))
	}

	if onesComplementChecksum(b[:headerLen]) != 0 {
		return ErrChecksumMismatch
	}

	if b[8] == 0 {
		return ErrTTLExceeded
	}

	p.Version = version
	p.IHL = ihl
	p.TOS = b[1]
	p.TotalLength = uint16(totalLen)
	p.Identification = binary.BigEndian.Uint16(b[4:6])

	flagsAndOffset := binary.BigEndian.Uint16(b[6:8])
	p.Flags = uint8(flagsAndOffset >> 13)
	p.FragmentOffset = flagsAndOffset & ipv4FragmentOffsetMask

	p.TTL = b[8]
	p.Protocol = IPProtocol(b[9])
	p.HeaderChecksum = binary.BigEndian.Uint16(b[10:12])
	p.SrcIP = net.IP(b[12:16])
	p.DstIP = net.IP(b[16:20])
	p.Options = nil
	if headerLen > IPv4HeaderMinLen {
		p.Options = b[IPv4HeaderMinLen:headerLen]
	}

	// link layers may pad short frames, only totalLen bytes belong to us
	p.Payload = b[headerLen:totalLen]
	return nil
}
