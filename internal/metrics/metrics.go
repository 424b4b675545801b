// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subtitler_sessions_active",
		Help: "Chat sessions with a live dispatcher worker",
	})

	RunsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subtitler_runs_active",
		Help: "Pipeline runs currently processing",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subtitler_runs_total",
		Help: "Finished pipeline runs by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subtitler_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subtitler_errors_total",
		Help: "Error counts by stage and kind",
	}, []string{"stage", "error_kind"})

	AcquisitionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subtitler_acquisition_fallbacks_total",
		Help: "Remote fetches retried with the unconstrained format",
	})

	TranslationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subtitler_translation_fallbacks_total",
		Help: "Segments rendered with source text after a translation failure",
	}, []string{"target"})

	SegmentsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subtitler_segments_rendered_total",
		Help: "Subtitle entries written per target language",
	}, []string{"target"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subtitler_events_dropped_total",
		Help: "Chat events rejected by the dispatcher",
	}, []string{"reason"})
)
