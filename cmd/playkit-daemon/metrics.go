package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the daemon's prometheus instrumentation on its own
// registry so only deliberately exported series appear on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	PlayRequests  prometheus.Counter
	PlaybackEnded prometheus.Counter
	Errors        *prometheus.CounterVec
	Resets        prometheus.Counter
	SourceChanges prometheus.Counter
	WsClients     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PlayRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playkit",
		Name:      "play_requests_total",
		Help:      "Play requests issued to the player.",
	})
	m.PlaybackEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playkit",
		Name:      "playback_ended_total",
		Help:      "Playback sessions that reached end of stream.",
	})
	m.Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playkit",
		Name:      "errors_total",
		Help:      "Playback errors by severity.",
	}, []string{"severity"})
	m.Resets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playkit",
		Name:      "resets_total",
		Help:      "Player resets.",
	})
	m.SourceChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playkit",
		Name:      "source_changes_total",
		Help:      "Completed source change flows.",
	})
	m.WsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playkit",
		Name:      "websocket_clients",
		Help:      "Currently connected websocket event clients.",
	})

	m.registry.MustRegister(
		m.PlayRequests, m.PlaybackEnded, m.Errors, m.Resets, m.SourceChanges, m.WsClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
