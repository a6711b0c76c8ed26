package driver

import (
	"context"
	"net"
	"sync"
)

const DefaultLoopbackQueueLimit = 16

// Loopback hands every sent frame back to the receive side through a
// bounded queue.
type Loopback struct {
	queue chan []byte

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

func NewLoopback(limit int) *Loopback {
	if limit <= 0 {
		limit = DefaultLoopbackQueueLimit
	}
	return &Loopback{
		queue: make(chan []byte, limit),
		done:  make(chan struct{}),
	}
}

func (l *Loopback) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return net.ErrClosed
	}
	return nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		l.closed = true
		close(l.done)
	}
	return nil
}

// Send queues a copy of b. It never blocks and fails with ErrQueueFull
// when the receive side lags behind.
func (l *Loopback) Send(b []byte) error {
	select {
	case <-l.done:
		return net.ErrClosed
	default:
	}

	frame := make([]byte, len(b))
	copy(frame, b)

	select {
	case l.queue <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

func (l *Loopback) Receive(ctx context.Context, b []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-l.done:
		return 0, net.ErrClosed
	case frame := <-l.queue:
		return copy(b, frame), nil
	}
}

// Pending returns the number of queued frames.
func (l *Loopback) Pending() int {
	return len(l.queue)
}
