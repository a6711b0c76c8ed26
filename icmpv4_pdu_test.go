package edustack_test

import (
	"testing"

	"github.com/davidkroell/edustack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

func TestBuildEcho(t *testing.T) {
	tests := map[string]struct {
		kind     edustack.IcmpType
		wantType ipv4.ICMPType
		id, seq  uint16
		data     []byte
	}{
		"Request": {
			kind:     edustack.IcmpTypeEchoRequest,
			wantType: ipv4.ICMPTypeEcho,
			id:       0x1234,
			seq:      1,
			data:     []byte("abcdefghijklmnopqrstuvwabcdefghi"),
		},
		"Reply": {
			kind:     edustack.IcmpTypeEchoReply,
			wantType: ipv4.ICMPTypeEchoReply,
			id:       0xffff,
			seq:      0xfffe,
			data:     []byte{0x01},
		},
		"EmptyData": {
			kind:     edustack.IcmpTypeEchoRequest,
			wantType: ipv4.ICMPTypeEcho,
			id:       7,
			seq:      65535,
			data:     []byte{},
		},
	}

	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := edustack.BuildEcho(v.kind, 0, v.id, v.seq, v.data)
			require.NoError(t, err)

			// a foreign implementation has to accept the message
			msg, err := icmp.ParseMessage(1, b)
			require.NoError(t, err)

			assert.Equal(t, v.wantType, msg.Type)
			assert.Equal(t, 0, msg.Code)

			echo, ok := msg.Body.(*icmp.Echo)
			require.True(t, ok)
			assert.Equal(t, int(v.id), echo.ID)
			assert.Equal(t, int(v.seq), echo.Seq)
			assert.Equal(t, v.data, echo.Data)

			// and the checksum of the whole message verifies to zero
			var decoded edustack.ICMPPacket
			require.NoError(t, decoded.UnmarshalBinary(b))
			assert.Equal(t, v.id, decoded.Id)
			assert.Equal(t, v.seq, decoded.Seq)
		})
	}
}

func TestICMPPacket_UnmarshalBinary(t *testing.T) {
	wire, err := (&icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: 4711, Seq: 42, Data: []byte("ping")},
	}).Marshal(nil)
	require.NoError(t, err)

	var packet edustack.ICMPPacket
	require.NoError(t, packet.UnmarshalBinary(wire))

	assert.Equal(t, edustack.IcmpTypeEchoRequest, packet.IcmpType)
	assert.EqualValues(t, 0, packet.IcmpCode)
	assert.EqualValues(t, 4711, packet.Id)
	assert.EqualValues(t, 42, packet.Seq)
	assert.Equal(t, []byte("ping"), packet.Data)
	assert.True(t, packet.IsEcho())

	t.Run("TooShort", func(t *testing.T) {
		err := (&edustack.ICMPPacket{}).UnmarshalBinary(wire[:7])
		assert.ErrorIs(t, err, edustack.ErrInvalidHeader)
	})

	t.Run("InputIsNotModified", func(t *testing.T) {
		before := append([]byte(nil), wire...)
		require.NoError(t, (&edustack.ICMPPacket{}).UnmarshalBinary(wire))
		assert.Equal(t, before, wire)
	})

	t.Run("EveryBitFlipIsRejected", func(t *testing.T) {
		for bit := 0; bit < len(wire)*8; bit++ {
			b := append([]byte(nil), wire...)
			b[bit/8] ^= 1 << (bit % 8)

			err := (&edustack.ICMPPacket{}).UnmarshalBinary(b)
			assert.ErrorIs(t, err, edustack.ErrChecksumMismatch, "flipped bit %d", bit)
		}
	})
}

func TestICMPPacket_MakeResponse(t *testing.T) {
	request := edustack.ICMPPacket{
		IcmpType: edustack.IcmpTypeEchoRequest,
		Id:       1,
		Seq:      2,
		Data:     []byte{1, 2, 3},
	}
	request.MakeResponse()

	b, err := request.MarshalBinary()
	require.NoError(t, err)

	msg, err := icmp.ParseMessage(1, b)
	require.NoError(t, err)
	assert.Equal(t, ipv4.ICMPTypeEchoReply, msg.Type)
	assert.NotZero(t, request.Checksum)
}

func TestIcmpType_String(t *testing.T) {
	assert.Equal(t, "Echo", edustack.IcmpTypeEchoRequest.String())
	assert.Equal(t, "EchoReply", edustack.IcmpTypeEchoReply.String())
	assert.Equal(t, "IcmpType(42)", edustack.IcmpType(42).String())
}
