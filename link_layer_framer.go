package edustack

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mdlayher/ethernet"
)

type linkFramer interface {
	frame(d *Device, proto ProtocolID, payload []byte) ([]byte, error)
	unframe(d *Device, b []byte) (ProtocolID, []byte, error)
	overhead() int
}

// loopbackFramer prefixes the payload with the 2 byte protocol id.
type loopbackFramer struct{}

const loopbackHeaderLen = 2

func (loopbackFramer) frame(_ *Device, proto ProtocolID, payload []byte) ([]byte, error) {
	b := make([]byte, loopbackHeaderLen+len(payload))
	binary.BigEndian.PutUint16(b, uint16(proto))
	copy(b[loopbackHeaderLen:], payload)
	return b, nil
}

func (loopbackFramer) unframe(_ *Device, b []byte) (ProtocolID, []byte, error) {
	if len(b) < loopbackHeaderLen {
		return 0, nil, fmt.Errorf("%w: loopback frame of %d bytes", ErrInvalidHeader, len(b))
	}
	return ProtocolID(binary.BigEndian.Uint16(b)), b[loopbackHeaderLen:], nil
}

func (loopbackFramer) overhead() int {
	return loopbackHeaderLen
}

type ethernetFramer struct{}

// header, one VLAN tag and the frame check sequence some taps pass through
const ethernetOverhead = 14 + 4 + 4

func (ethernetFramer) frame(d *Device, proto ProtocolID, payload []byte) ([]byte, error) {
	dst := ethernet.Broadcast
	if d.PeerHardwareAddr != nil {
		dst = d.PeerHardwareAddr
	}

	f := ethernet.Frame{
		Destination: dst,
		Source:      d.HardwareAddr,
		EtherType:   proto,
		Payload:     payload,
	}
	return f.MarshalBinary()
}

func (ethernetFramer) unframe(d *Device, b []byte) (ProtocolID, []byte, error) {
	var f ethernet.Frame
	if err := f.UnmarshalBinary(b); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	if !bytes.Equal(f.Destination, d.HardwareAddr) && !bytes.Equal(f.Destination, ethernet.Broadcast) {
		return 0, nil, ErrDropPdu
	}

	return f.EtherType, f.Payload, nil
}

func (ethernetFramer) overhead() int {
	return ethernetOverhead
}
