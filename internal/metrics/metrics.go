// Package metrics exposes Prometheus counters for the capture pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	FramesRead      prometheus.Counter
	FramesProcessed prometheus.Counter
	FramesSkipped   prometheus.Counter
	Detections      prometheus.Counter
	AlertsEmitted   *prometheus.CounterVec
	DetectorErrors  prometheus.Counter
	SpeechErrors    prometheus.Counter
	AssistantErrors prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		FramesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_frames_read_total",
			Help: "Frames read from the camera.",
		}),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_frames_processed_total",
			Help: "Frames pushed through detection and classification.",
		}),
		FramesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_frames_skipped_total",
			Help: "Frames skipped because of detector failures.",
		}),
		Detections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_detections_total",
			Help: "Objects detected across all frames.",
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lazarillo_alerts_emitted_total",
			Help: "Voice alerts emitted, by danger level.",
		}, []string{"level"}),
		DetectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_detector_errors_total",
			Help: "Detector adapter failures.",
		}),
		SpeechErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_speech_errors_total",
			Help: "Speech synthesis failures.",
		}),
		AssistantErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lazarillo_assistant_errors_total",
			Help: "Assistant API failures.",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.FramesRead,
		m.FramesProcessed,
		m.FramesSkipped,
		m.Detections,
		m.AlertsEmitted,
		m.DetectorErrors,
		m.SpeechErrors,
		m.AssistantErrors,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
