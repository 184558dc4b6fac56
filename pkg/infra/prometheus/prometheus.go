package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	SinkCallsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_sink_calls_total",
			Help: "Total number of intercepted sink calls",
		},
		[]string{"module", "outcome"}, // outcome is "allowed", "blocked" or "without_context"
	)

	AttacksDetectedTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_attacks_detected_total",
			Help: "Total number of detected attacks",
		},
		[]string{"module", "kind", "blocked"},
	)

	ReportsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_reports_total",
			Help: "Events handed to the reporting transport",
		},
		[]string{"event", "result"},
	)

	Hostnames = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "trustshield_hostnames",
			Help: "Outbound hostnames currently tracked",
		},
	)
)

type MetricsConfig struct {
	EnableSinkCalls bool // Per-module call counters
	EnableReports   bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		EnableSinkCalls: true,
		EnableReports:   true,
	}
}

var (
	Config   = DefaultMetricsConfig()
	initOnce sync.Once
)

func Initialize(cfg MetricsConfig) {
	Config = cfg
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prometheus.DefaultRegisterer = registry
		prometheus.DefaultGatherer = registry
	})
}

// Gatherer exposes the registry to the metrics endpoint.
func Gatherer() prometheus.Gatherer {
	return registry
}
