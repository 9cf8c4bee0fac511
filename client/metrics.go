package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts requests and websocket traffic. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	wsMessages   *prometheus.CounterVec
	wsReconnects prometheus.Counter
	wsState      prometheus.Gauge
}

// NewMetrics creates the client metrics and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chronik",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests sent to Chronik",
		}, []string{"method", "path", "status"}),
		wsMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chronik",
			Subsystem: "client",
			Name:      "ws_messages_total",
			Help:      "Total number of websocket messages received, by kind",
		}, []string{"type"}),
		wsReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chronik",
			Subsystem: "client",
			Name:      "ws_reconnects_total",
			Help:      "Total number of websocket reconnection attempts",
		}),
		wsState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chronik",
			Subsystem: "client",
			Name:      "ws_connection_state",
			Help:      "Current connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=closed)",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.requests,
			m.wsMessages,
			m.wsReconnects,
			m.wsState,
		)
	}

	return m
}

func (m *Metrics) OnRequest(method, path, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, status).Inc()
}

func (m *Metrics) OnWsMessage(msgType WsMsgType) {
	if m == nil {
		return
	}
	m.wsMessages.WithLabelValues(string(msgType)).Inc()
}

func (m *Metrics) OnReconnect() {
	if m == nil {
		return
	}
	m.wsReconnects.Inc()
}

func (m *Metrics) OnStateChange(state ConnectionState) {
	if m == nil {
		return
	}
	m.wsState.Set(float64(state))
}
