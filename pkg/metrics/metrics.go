// Copyright 2025 Certen Protocol
//
// Package metrics registers the Prometheus series the service exposes at
// /metrics: dual-store fallback counts, submit latency, and JWKS refresh
// state.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups the collectors registered by this package so callers can
// wire them into an *http.ServeMux without reaching for the global
// DefaultRegisterer directly.
type Registry struct {
	Registerer *prometheus.Registry

	FallbackTotal  *prometheus.GaugeVec
	SubmitLatency  prometheus.Histogram
	SubmitOutcomes *prometheus.CounterVec
	JWKSLoaded     prometheus.Gauge
}

// New constructs a Registry and registers every collector.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registerer: reg,
		FallbackTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "keycortex_dualstore_fallback_total",
			Help: "Current value of each dual-store fallback counter class.",
		}, []string{"class"}),
		SubmitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keycortex_submit_latency_seconds",
			Help:    "Latency of /wallet/submit end to end, including the chain adapter call.",
			Buckets: prometheus.DefBuckets,
		}),
		SubmitOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keycortex_submit_outcomes_total",
			Help: "Count of /wallet/submit outcomes by result.",
		}, []string{"outcome"}),
		JWKSLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keycortex_jwks_loaded",
			Help: "1 if a JWKS has ever been successfully loaded, 0 otherwise.",
		}),
	}

	reg.MustRegister(r.FallbackTotal, r.SubmitLatency, r.SubmitOutcomes, r.JWKSLoaded)
	return r
}

// ObserveFallbackSnapshot publishes a point-in-time fallback counter
// snapshot. Field names mirror dualstore.FallbackCounterSnapshot's JSON
// tags.
func (r *Registry) ObserveFallbackSnapshot(fields map[string]uint64) {
	for class, value := range fields {
		r.FallbackTotal.WithLabelValues(class).Set(float64(value))
	}
}

// RecordSubmit records one /wallet/submit call's latency and outcome.
func (r *Registry) RecordSubmit(seconds float64, outcome string) {
	r.SubmitLatency.Observe(seconds)
	r.SubmitOutcomes.WithLabelValues(outcome).Inc()
}

// SetJWKSLoaded publishes whether a JWKS has ever loaded successfully.
func (r *Registry) SetJWKSLoaded(loaded bool) {
	if loaded {
		r.JWKSLoaded.Set(1)
		return
	}
	r.JWKSLoaded.Set(0)
}
