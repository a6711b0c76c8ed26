package edustack

import (
	"encoding/binary"
	"fmt"
)

const (
	icmpv4HeaderLength = 8
)

type IcmpType uint8

const (
	IcmpTypeEchoReply       IcmpType = 0
	IcmpTypeDestUnreachable IcmpType = 3
	IcmpTypeEchoRequest     IcmpType = 8
	IcmpTypeTimeExceeded    IcmpType = 11
)

func (t IcmpType) String() string {
	switch t {
	case IcmpTypeEchoReply:
		return "EchoReply"
	case IcmpTypeDestUnreachable:
		return "DestinationUnreachable"
	case IcmpTypeEchoRequest:
		return "Echo"
	case IcmpTypeTimeExceeded:
		return "TimeExceeded"
	default:
		return fmt.Sprintf("IcmpType(%d)", uint8(t))
	}
}

// ICMPPacket is an ICMPv4 message. Id and Seq hold the 4 byte rest-of-header
// field, which only echo messages interpret as identifier and sequence.
type ICMPPacket struct {
	IcmpType IcmpType
	IcmpCode uint8
	Checksum uint16
	Id       uint16
	Seq      uint16
	Data     []byte
}

// UnmarshalBinary decodes an ICMP message and verifies its checksum.
// Data aliases the input.
func (icmp *ICMPPacket) UnmarshalBinary(data []byte) error {
	if len(data) < icmpv4HeaderLength {
		return fmt.Errorf("%w: icmp message too short (%d bytes)", ErrInvalidHeader, len(data))
	}

	if onesComplementChecksum(data) != 0 {
		return ErrChecksumMismatch
	}

	icmp.IcmpType = IcmpType(data[0])
	icmp.IcmpCode = data[1]
	icmp.Checksum = binary.BigEndian.Uint16(data[2:4])
	icmp.Id = binary.BigEndian.Uint16(data[4:6])
	icmp.Seq = binary.BigEndian.Uint16(data[6:8])
	icmp.Data = data[icmpv4HeaderLength:]

	return nil
}

// MarshalBinary serializes the message. The checksum is computed last over
// the completed message and stored in icmp.Checksum.
func (icmp *ICMPPacket) MarshalBinary() ([]byte, error) {
	b := make([]byte, icmpv4HeaderLength+len(icmp.Data))

	b[0] = uint8(icmp.IcmpType)
	b[1] = icmp.IcmpCode
	binary.BigEndian.PutUint16(b[4:6], icmp.Id)
	binary.BigEndian.PutUint16(b[6:8], icmp.Seq)

	copy(b[icmpv4HeaderLength:], icmp.Data)

	icmp.Checksum = onesComplementChecksum(b)
	binary.BigEndian.PutUint16(b[2:4], icmp.Checksum)

	return b, nil
}

func (icmp *ICMPPacket) IsEcho() bool {
	return icmp.IcmpType == IcmpTypeEchoRequest || icmp.IcmpType == IcmpTypeEchoReply
}

func (icmp *ICMPPacket) MakeResponse() {
	icmp.IcmpType = IcmpTypeEchoReply
	icmp.IcmpCode = 0
}

// BuildEcho serializes an echo style message with independent identifier
// and sequence fields.
func BuildEcho(kind IcmpType, code uint8, id, seq uint16, data []byte) ([]byte, error) {
	return (&ICMPPacket{
		IcmpType: kind,
		IcmpCode: code,
		Id:       id,
		Seq:      seq,
		Data:     data,
	}).MarshalBinary()
}
