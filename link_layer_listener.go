package edustack

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

const (
	receiveRetryInitial = 10 * time.Millisecond
	receiveRetryMax     = time.Second
)

// LinkLayerListener is the worker of one device. It reads frames from the
// backend, strips the link header and submits the payload to the
// dispatcher.
type LinkLayerListener struct {
	dev        *Device
	dispatcher *Dispatcher
	metrics    *Metrics
	log        zerolog.Logger
	retry      *backoff.ExponentialBackOff
}

func NewLinkLayerListener(dev *Device, dispatcher *Dispatcher, metrics *Metrics, logger zerolog.Logger) *LinkLayerListener {
	return &LinkLayerListener{
		dev:        dev,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        logger.With().Str("device", dev.Name).Logger(),
		retry:      newReceiveRetry(),
	}
}

func newReceiveRetry() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = receiveRetryInitial
	b.MaxInterval = receiveRetryMax
	b.Reset()
	return b
}

// ListenAndServe runs until ctx is done or the backend is closed. Failed
// reads are retried with an exponential backoff.
func (listener *LinkLayerListener) ListenAndServe(ctx context.Context) error {
	buf := make([]byte, listener.dev.receiveBufferSize())

	for {
		n, err := listener.dev.backend.Receive(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return err
			}
			listener.dev.rxErrors.Add(1)
			wait := listener.retry.NextBackOff()
			listener.log.Error().Err(err).Dur("retry_in", wait).Msg("failed to read frame")
			if !sleepContext(ctx, wait) {
				return nil
			}
			continue
		}
		listener.retry.Reset()

		protocol, payload, err := listener.dev.framer.unframe(listener.dev, buf[:n])
		if err != nil {
			if !errors.Is(err, ErrDropPdu) {
				listener.dev.rxErrors.Add(1)
				listener.log.Debug().Err(err).Msg("malformed frame")
			}
			continue
		}

		listener.dev.rxFrames.Add(1)
		listener.dev.rxBytes.Add(uint64(n))
		listener.metrics.frameReceived(listener.dev.Name)

		// buf is reused for the next read
		data := make([]byte, len(payload))
		copy(data, payload)

		if err := listener.dispatcher.Submit(listener.dev.id, protocol, data); err != nil {
			listener.log.Debug().Err(err).Msgf("submitted %s frame", protocol)
		}
	}
}

// sleepContext waits for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
