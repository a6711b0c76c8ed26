package edustack

import (
	"context"
	"io"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receiveResult struct {
	frame []byte
	err   error
}

// scriptedBackend plays back script, then returns then on every call or
// blocks until ctx is done if then is nil.
type scriptedBackend struct {
	recordingBackend
	script []receiveResult
	then   error
	calls  atomic.Int32
}

func (b *scriptedBackend) Receive(ctx context.Context, buf []byte) (int, error) {
	i := int(b.calls.Add(1)) - 1
	if i < len(b.script) {
		r := b.script[i]
		return copy(buf, r.frame), r.err
	}
	if b.then != nil {
		return 0, b.then
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func newTestListener(t *testing.T, backend Backend) (*LinkLayerListener, *Dispatcher) {
	t.Helper()

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	d := NewDispatcher(8, metrics, zerolog.Nop())
	require.NoError(t, d.RegisterProtocol(ProtocolIPv4, LinkLayerHandlerFunc(func(*PendingFrame) error {
		return nil
	})))

	dev := NewLoopbackDevice("lo", backend)
	return NewLinkLayerListener(dev, d, metrics, zerolog.Nop()), d
}

func TestLinkLayerListener_PersistentErrorBacksOff(t *testing.T) {
	backend := &scriptedBackend{then: syscall.EIO}
	listener, _ := newTestListener(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- listener.ListenAndServe(ctx)
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	calls := backend.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(2))
	assert.Less(t, calls, int32(20))
	// a read failing as ctx expires is not counted
	assert.InDelta(t, calls, listener.dev.Stats().RxErrors, 1)
}

func TestLinkLayerListener_EOFEndsWorker(t *testing.T) {
	listener, _ := newTestListener(t, &scriptedBackend{then: io.EOF})

	assert.ErrorIs(t, listener.ListenAndServe(context.Background()), io.EOF)
}

func TestLinkLayerListener_RecoversAfterReadError(t *testing.T) {
	backend := &scriptedBackend{
		script: []receiveResult{
			{err: syscall.EIO},
			{frame: []byte{0x08, 0x00, 0xca, 0xfe}},
		},
	}
	listener, d := newTestListener(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listener.ListenAndServe(ctx)
	}()

	require.Eventually(t, func() bool {
		return d.Pending()[ProtocolIPv4] == 1
	}, 5*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	stats := listener.dev.Stats()
	assert.EqualValues(t, 1, stats.RxErrors)
	assert.EqualValues(t, 1, stats.RxFrames)
}
