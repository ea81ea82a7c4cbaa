// Package metrics содержит Prometheus-метрики инспекции.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// InspectionMetrics метрики циклов и событий по потокам.
type InspectionMetrics struct {
	Frames     *prometheus.CounterVec
	Detections *prometheus.CounterVec
	Defects    *prometheus.CounterVec
	Similarity *prometheus.GaugeVec
	CycleTime  *prometheus.HistogramVec
	FeedErrors *prometheus.CounterVec
}

// NewInspectionMetrics создаёт метрики и регистрирует их в registry.
func NewInspectionMetrics(registry prometheus.Registerer) (*InspectionMetrics, error) {
	m := &InspectionMetrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_frames_total",
			Help: "Total number of frames compared against the reference",
		}, []string{"feed"}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_detections_total",
			Help: "Total number of detection events with at least one defect region",
		}, []string{"feed"}),
		Defects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_defects_total",
			Help: "Total number of defect regions reported",
		}, []string{"feed"}),
		Similarity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inspector_similarity_score",
			Help: "Similarity score of the last inspected frame",
		}, []string{"feed"}),
		CycleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inspector_cycle_seconds",
			Help:    "Time spent normalizing, scoring and extracting one frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"feed"}),
		FeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_feed_errors_total",
			Help: "Total number of fatal feed errors by stage",
		}, []string{"feed", "stage"}),
	}

	for _, c := range []prometheus.Collector{m.Frames, m.Detections, m.Defects, m.Similarity, m.CycleTime, m.FeedErrors} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register inspection metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveCycle учитывает один сравнённый кадр.
func (m *InspectionMetrics) ObserveCycle(feed string, result *entity.SimilarityResult, seconds float64) {
	m.Frames.WithLabelValues(feed).Inc()
	m.CycleTime.WithLabelValues(feed).Observe(seconds)
	if result != nil {
		m.Similarity.WithLabelValues(feed).Set(result.Score)
	}
}

// ObserveDetection учитывает событие и число его областей.
func (m *InspectionMetrics) ObserveDetection(feed string, ev *entity.DetectionEvent) {
	m.Detections.WithLabelValues(feed).Inc()
	m.Defects.WithLabelValues(feed).Add(float64(ev.DefectCount()))
}

// ObserveFailure учитывает фатальную ошибку потока.
func (m *InspectionMetrics) ObserveFailure(feed string, stage entity.Stage) {
	m.FeedErrors.WithLabelValues(feed, string(stage)).Inc()
}

var _ port.InspectionObserver = (*InspectionMetrics)(nil)
