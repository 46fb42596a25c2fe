package monitoring

import (
	"chatlink/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector records coordinator activity: connection churn,
// presence fan-out and signal routing outcomes. It satisfies both the
// websocket server's ConnMetrics and the router's RouterMetrics.
type PrometheusCollector struct {
	connectionsOpen       prometheus.Gauge
	connectionsTotal      *prometheus.CounterVec
	presenceBroadcasts    prometheus.Counter
	presenceBroadcastSize prometheus.Histogram

	signalsRouted *prometheus.CounterVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chatlink_connections_open",
			Help: "Number of live websocket connections, anonymous included",
		}),

		connectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatlink_connections_total",
			Help: "Total websocket connections accepted",
		}, []string{"registered"}),

		presenceBroadcasts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatlink_presence_broadcasts_total",
			Help: "Total full presence fan-outs",
		}),

		presenceBroadcastSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatlink_presence_broadcast_connections",
			Help:    "Connections reached per presence broadcast",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		signalsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatlink_signals_total",
			Help: "Call-control signals by kind and routing outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (p *PrometheusCollector) ConnectionOpened(registered bool) {
	p.connectionsOpen.Inc()
	label := "false"
	if registered {
		label = "true"
	}
	p.connectionsTotal.WithLabelValues(label).Inc()
}

func (p *PrometheusCollector) ConnectionClosed() {
	p.connectionsOpen.Dec()
}

func (p *PrometheusCollector) PresenceBroadcast(reached int) {
	p.presenceBroadcasts.Inc()
	p.presenceBroadcastSize.Observe(float64(reached))
}

func (p *PrometheusCollector) SignalRouted(kind domain.SignalKind) {
	p.signalsRouted.WithLabelValues(string(kind), "routed").Inc()
}

func (p *PrometheusCollector) SignalDropped(kind domain.SignalKind) {
	p.signalsRouted.WithLabelValues(string(kind), "dropped").Inc()
}

func (p *PrometheusCollector) SignalDenied(kind domain.SignalKind) {
	p.signalsRouted.WithLabelValues(string(kind), "denied").Inc()
}
