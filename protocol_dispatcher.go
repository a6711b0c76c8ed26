package edustack

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const DefaultQueueSize = 64

// Dispatcher moves inbound frames from device workers to protocol
// handlers. Submit never blocks; a single Run loop drains the protocol
// queues round robin, FIFO within one queue.
type Dispatcher struct {
	strategy *LinkLayerStrategy
	metrics  *Metrics
	log      zerolog.Logger

	wakeup   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	running   atomic.Bool
	closed    atomic.Bool
	overflows atomic.Uint64
}

func NewDispatcher(queueSize int, metrics *Metrics, logger zerolog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Dispatcher{
		strategy: NewLinkLayerStrategy(queueSize),
		metrics:  metrics,
		log:      logger.With().Str("component", "dispatcher").Logger(),
		wakeup:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// RegisterProtocol binds a handler to a protocol id. Only allowed before
// Run has been started.
func (d *Dispatcher) RegisterProtocol(protocol ProtocolID, handler LinkLayerHandler) error {
	if d.running.Load() {
		return ErrStackRunning
	}
	return d.strategy.Register(protocol, handler)
}

// Submit enqueues a received payload. It reports ErrQueueOverflow when the
// oldest frame of the queue had to make room; the payload is queued anyway.
func (d *Dispatcher) Submit(dev DeviceID, protocol ProtocolID, payload []byte) error {
	if d.closed.Load() {
		return ErrDispatcherShutdown
	}

	reg, err := d.strategy.lookup(protocol)
	if err != nil {
		d.metrics.frameDropped(protocol, err)
		return fmt.Errorf("%w: %s", err, protocol)
	}

	evicted := reg.queue.push(&PendingFrame{
		Payload:  payload,
		Device:   dev,
		Protocol: protocol,
		Arrival:  time.Now(),
	})

	select {
	case d.wakeup <- struct{}{}:
	default:
	}

	if evicted {
		d.overflows.Add(1)
		d.metrics.queueOverflow(protocol)
		return ErrQueueOverflow
	}
	return nil
}

// Run drains the queues until Shutdown is called or ctx is done. It
// returns only after the running handler returned.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.running.Store(true)

	for {
		select {
		case <-d.stop:
			return nil
		case <-ctx.Done():
			return nil
		case <-d.wakeup:
		}

		if !d.drain(ctx) {
			return nil
		}
	}
}

// drain handles frames until all queues are empty and reports false when
// the dispatcher has to stop.
func (d *Dispatcher) drain(ctx context.Context) bool {
	regs := d.strategy.registrations()

	for {
		progressed := false

		for _, reg := range regs {
			if d.stopped(ctx) {
				return false
			}

			f, ok := reg.queue.pop()
			if !ok {
				continue
			}
			progressed = true
			d.handle(reg, f)
		}

		if !progressed {
			return true
		}
	}
}

func (d *Dispatcher) stopped(ctx context.Context) bool {
	select {
	case <-d.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (d *Dispatcher) handle(reg *protocolRegistration, f *PendingFrame) {
	d.metrics.queueDelay(reg.protocol, time.Since(f.Arrival))

	defer func() {
		if r := recover(); r != nil {
			d.metrics.frameDropped(reg.protocol, nil)
			d.log.Error().Msgf("handler for %s panicked: %v", reg.protocol, r)
		}
	}()

	if err := reg.handler.Handle(f); err != nil {
		d.metrics.frameDropped(reg.protocol, err)
		d.log.Debug().Err(err).
			Stringer("device", f.Device).
			Stringer("protocol", reg.protocol).
			Stringer("reason", KindOf(err)).
			Msg("dropped frame")
	}
}

// Shutdown stops accepting frames and ends Run. Queued frames are
// discarded.
func (d *Dispatcher) Shutdown() {
	d.closed.Store(true)
	d.stopOnce.Do(func() {
		close(d.stop)
	})
}

// Overflows returns the number of frames evicted from full queues.
func (d *Dispatcher) Overflows() uint64 {
	return d.overflows.Load()
}

// Pending returns the number of queued frames per protocol.
func (d *Dispatcher) Pending() map[ProtocolID]int {
	pending := make(map[ProtocolID]int)
	for _, reg := range d.strategy.registrations() {
		pending[reg.protocol] = reg.queue.len()
	}
	return pending
}

func (d *Dispatcher) SupportedProtocols() []ProtocolID {
	return d.strategy.GetSupportedProtocols()
}
