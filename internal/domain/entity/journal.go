package entity

import "time"

// EventRecord: запись журнала о событии с дефектами
type EventRecord struct {
	ID            string
	Feed          string
	Score         float64
	DefectCount   int
	PhotoPath     string
	HistogramPath string
	DetectedAt    time.Time
}

// NewEventRecord сворачивает событие в запись журнала
func NewEventRecord(ev *DetectionEvent) EventRecord {
	return EventRecord{
		ID:            ev.ID,
		Feed:          ev.Feed,
		Score:         ev.Score,
		DefectCount:   ev.DefectCount(),
		PhotoPath:     ev.Evidence.Photo,
		HistogramPath: ev.Evidence.Histogram,
		DetectedAt:    ev.DetectedAt,
	}
}
