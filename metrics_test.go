package edustack

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.frameReceived("lo")
	second.frameReceived("lo")
	assert.EqualValues(t, 2, testutil.ToFloat64(first.FramesReceived.WithLabelValues("lo")))
}

func TestNewMetrics_IncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "edustack_frames_received_total",
		Help: "Frames read from a device and handed to the dispatcher.",
	}, []string{"device"})))

	_, err := NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.frameReceived("lo")
		m.frameTransmitted("lo")
		m.frameDropped(ProtocolIPv4, ErrChecksumMismatch)
		m.queueOverflow(ProtocolIPv4)
		m.queueDelay(ProtocolIPv4, 0)
		m.datagram("in", IPProtocolICMPv4)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	m.frameDropped(ProtocolIPv4, ErrChecksumMismatch)
	m.datagram("out", IPProtocolICMPv4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `edustack_frames_dropped_total{kind="validation"`))
	assert.True(t, strings.Contains(string(body), `edustack_ip_datagrams_total{direction="out",protocol="ICMP"} 1`))
}
