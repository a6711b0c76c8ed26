package edustack

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRegistry_Register(t *testing.T) {
	r := NewDeviceRegistry(nil)

	lo := NewLoopbackDevice("lo", &recordingBackend{})
	id, err := r.Register(lo)
	require.NoError(t, err)
	assert.EqualValues(t, 0, id)
	assert.Equal(t, id, lo.ID())

	eth := NewEthernetDevice("eth0", localMAC, nil, &recordingBackend{})
	id, err = r.Register(eth)
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	_, err = r.Register(NewLoopbackDevice("lo", &recordingBackend{}))
	assert.ErrorIs(t, err, ErrDuplicateDeviceName)

	dev, err := r.Device(1)
	require.NoError(t, err)
	assert.Same(t, eth, dev)

	_, err = r.Device(2)
	assert.ErrorIs(t, err, ErrUnknownDevice)
	_, err = r.Device(-1)
	assert.ErrorIs(t, err, ErrUnknownDevice)

	dev, err = r.DeviceByName("lo")
	require.NoError(t, err)
	assert.Same(t, lo, dev)

	assert.Equal(t, []*Device{lo, eth}, r.Devices())
}

func TestDeviceRegistry_AttachInterface(t *testing.T) {
	r := NewDeviceRegistry(nil)
	lo, err := r.Register(NewLoopbackDevice("lo", &recordingBackend{}))
	require.NoError(t, err)
	eth, err := r.Register(NewEthernetDevice("eth0", localMAC, nil, &recordingBackend{}))
	require.NoError(t, err)

	iface := mustInterface(t, "127.0.0.1/8")
	require.NoError(t, r.AttachInterface(lo, iface))
	assert.True(t, iface.Attached())
	assert.Equal(t, lo, iface.Device())

	t.Run("SecondInterfaceOfSameFamily", func(t *testing.T) {
		err := r.AttachInterface(lo, mustInterface(t, "127.0.0.2/8"))
		assert.ErrorIs(t, err, ErrAlreadyAttached)
	})

	t.Run("InterfaceOwnedByOtherDevice", func(t *testing.T) {
		err := r.AttachInterface(eth, iface)
		assert.ErrorIs(t, err, ErrAlreadyAttached)
		assert.Equal(t, lo, iface.Device())
	})

	t.Run("UnknownDevice", func(t *testing.T) {
		err := r.AttachInterface(7, mustInterface(t, "10.0.0.1/8"))
		assert.ErrorIs(t, err, ErrUnknownDevice)
	})

	dev, err := r.Device(lo)
	require.NoError(t, err)
	assert.Same(t, iface, dev.Interface(AddressFamilyIPv4))
}

func TestDeviceRegistry_LookupByAddress(t *testing.T) {
	r := NewDeviceRegistry(nil)

	wide := mustInterface(t, "10.0.0.1/8")
	narrow := mustInterface(t, "10.1.0.1/16")
	twin := mustInterface(t, "10.0.0.2/8")

	for i, iface := range []*Interface{wide, narrow, twin} {
		id, err := r.Register(NewEthernetDevice(string(rune('a'+i)), localMAC, nil, &recordingBackend{}))
		require.NoError(t, err)
		require.NoError(t, r.AttachInterface(id, iface))
	}

	assert.Same(t, narrow, r.LookupByAddress(net.IP{10, 1, 200, 1}))
	// equal prefixes go to the first registered device
	assert.Same(t, wide, r.LookupByAddress(net.IP{10, 200, 0, 1}))
	assert.Nil(t, r.LookupByAddress(net.IP{192, 168, 0, 1}))

	assert.True(t, r.OwnsAddress(net.IP{10, 0, 0, 2}))
	assert.False(t, r.OwnsAddress(net.IP{10, 0, 0, 3}))
}

func TestDeviceRegistry_Transmit(t *testing.T) {
	r := NewDeviceRegistry(nil)
	backend := &recordingBackend{}
	id, err := r.Register(NewLoopbackDevice("lo", backend))
	require.NoError(t, err)

	assert.ErrorIs(t, r.Transmit(id, ProtocolIPv4, []byte{1}), ErrDeviceNotRunning)
	assert.ErrorIs(t, r.Transmit(id+1, ProtocolIPv4, []byte{1}), ErrUnknownDevice)

	dev, err := r.Device(id)
	require.NoError(t, err)
	require.NoError(t, dev.open())

	t.Run("ConcurrentCallersAreSerialized", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					assert.NoError(t, r.Transmit(id, ProtocolIPv4, []byte{byte(i), byte(j)}))
				}
			}(i)
		}
		wg.Wait()

		assert.False(t, backend.overlapped.Load())
		assert.Len(t, backend.frames(), 16*50)
	})
}
