package edustack

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors of one stack. All methods are
// safe on a nil receiver.
type Metrics struct {
	gatherer prometheus.Gatherer

	FramesReceived    *prometheus.CounterVec
	FramesTransmitted *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	QueueOverflows    *prometheus.CounterVec
	QueueDelay        *prometheus.HistogramVec
	Datagrams         *prometheus.CounterVec
}

// NewMetrics registers the stack metrics against reg. A nil reg gets a
// private registry so several stacks can live in one process.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	received, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edustack_frames_received_total",
		Help: "Frames read from a device and handed to the dispatcher.",
	}, []string{"device"}), "edustack_frames_received_total")
	if err != nil {
		return nil, err
	}

	transmitted, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edustack_frames_transmitted_total",
		Help: "Frames written to a device.",
	}, []string{"device"}), "edustack_frames_transmitted_total")
	if err != nil {
		return nil, err
	}

	dropped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edustack_frames_dropped_total",
		Help: "Frames dropped on the inbound path, labeled by protocol and error kind.",
	}, []string{"protocol", "kind"}), "edustack_frames_dropped_total")
	if err != nil {
		return nil, err
	}

	overflows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edustack_queue_overflows_total",
		Help: "Frames evicted from a full protocol queue.",
	}, []string{"protocol"}), "edustack_queue_overflows_total")
	if err != nil {
		return nil, err
	}

	delay, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edustack_queue_delay_seconds",
		Help:    "Time a frame spent in its protocol queue before being handled.",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"protocol"}), "edustack_queue_delay_seconds")
	if err != nil {
		return nil, err
	}

	datagrams, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edustack_ip_datagrams_total",
		Help: "IPv4 datagrams, labeled by direction and upper layer protocol.",
	}, []string{"direction", "protocol"}), "edustack_ip_datagrams_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:          gatherer,
		FramesReceived:    received,
		FramesTransmitted: transmitted,
		FramesDropped:     dropped,
		QueueOverflows:    overflows,
		QueueDelay:        delay,
		Datagrams:         datagrams,
	}, nil
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) frameReceived(device string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(device).Inc()
}

func (m *Metrics) frameTransmitted(device string) {
	if m == nil {
		return
	}
	m.FramesTransmitted.WithLabelValues(device).Inc()
}

func (m *Metrics) frameDropped(proto ProtocolID, err error) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(proto.String(), KindOf(err).String()).Inc()
}

func (m *Metrics) queueOverflow(proto ProtocolID) {
	if m == nil {
		return
	}
	m.QueueOverflows.WithLabelValues(proto.String()).Inc()
}

func (m *Metrics) queueDelay(proto ProtocolID, d time.Duration) {
	if m == nil {
		return
	}
	m.QueueDelay.WithLabelValues(proto.String()).Observe(d.Seconds())
}

func (m *Metrics) datagram(direction string, proto IPProtocol) {
	if m == nil {
		return
	}
	m.Datagrams.WithLabelValues(direction, proto.String()).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
