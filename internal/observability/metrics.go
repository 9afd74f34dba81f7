package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the bot.
type Metrics struct {
	UpdatesReceived *prometheus.CounterVec // labels: intent={help,start,place,location,unsupported}
	RepliesSent     *prometheus.CounterVec // labels: kind={text,photo}
	LoopRunning     prometheus.Gauge

	// Weather provider metrics.
	ProviderRequests *prometheus.CounterVec // labels: outcome={success,not_found,error}
	ProviderDuration prometheus.Histogram

	// Rendering and persistence metrics.
	RenderDuration    prometheus.Histogram
	RegistersRecorded prometheus.Counter
}

// NewMetrics creates and registers all bot metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpdatesReceived,
		m.RepliesSent,
		m.LoopRunning,
		m.ProviderRequests,
		m.ProviderDuration,
		m.RenderDuration,
		m.RegistersRecorded,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpdatesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "updates_total",
			Help:      "Inbound transport updates by classified intent.",
		}, []string{"intent"}),
		RepliesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "replies_total",
			Help:      "Outbound replies by kind.",
		}, []string{"kind"}),
		LoopRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weatherbot",
			Name:      "loop_running",
			Help:      "1 when the conversation loop is active, 0 when shut down.",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "provider_requests_total",
			Help:      "Weather provider requests by outcome.",
		}, []string{"outcome"}),
		ProviderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weatherbot",
			Name:      "provider_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weatherbot",
			Name:      "render_duration_seconds",
			Help:      "Report image render duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RegistersRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weatherbot",
			Name:      "registers_total",
			Help:      "Total report events appended to the register log.",
		}),
	}
}
