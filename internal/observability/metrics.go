package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	EventsEmitted    *prometheus.CounterVec
	EventsAborted    *prometheus.CounterVec
	EventsInfeasible prometheus.Counter
	SinkErrors       *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
	EntitiesTotal    *prometheus.GaugeVec

	registry *prometheus.Registry
	handler  http.Handler
}

func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resinker_events_emitted_total",
				Help: "Total number of events emitted to sinks",
			},
			[]string{"event_type"},
		),
		EventsAborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resinker_events_aborted_total",
				Help: "Total number of events aborted by per-event errors",
			},
			[]string{"event_type"},
		),
		EventsInfeasible: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "resinker_events_infeasible_total",
				Help: "Total number of scheduled events skipped because consumed entities were unavailable",
			},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resinker_sink_errors_total",
				Help: "Total number of sink emission failures",
			},
			[]string{"sink"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "resinker_scheduler_queue_depth",
				Help: "Number of scheduled events currently queued",
			},
		),
		EntitiesTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resinker_entities_total",
				Help: "Number of entities registered per type",
			},
			[]string{"entity_type"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m.handler != nil {
		return m.handler
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.EventsEmitted,
		m.EventsAborted,
		m.EventsInfeasible,
		m.SinkErrors,
		m.QueueDepth,
		m.EntitiesTotal,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m.handler
}

// Serve exposes /metrics on the given port in a background goroutine.
func (m *Metrics) Serve(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
