package mqtt

import (
	"time"

	"line-inspector/internal/domain/entity"
)

// Region область дефекта в сообщении
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Area   int `json:"area"`
}

// Payload тело сообщения о событии
type Payload struct {
	ID          string    `json:"id"`
	Feed        string    `json:"feed"`
	Score       float64   `json:"score"`
	DefectCount int       `json:"defect_count"`
	Regions     []Region  `json:"regions"`
	FrameWidth  int       `json:"frame_width"`
	FrameHeight int       `json:"frame_height"`
	Photo       string    `json:"photo,omitempty"`
	Histogram   string    `json:"histogram,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}

// NewPayload собирает сообщение из события
func NewPayload(ev *entity.DetectionEvent) Payload {
	regions := make([]Region, 0, len(ev.Regions))
	for _, r := range ev.Regions {
		regions = append(regions, Region{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Area: r.Area})
	}
	return Payload{
		ID:          ev.ID,
		Feed:        ev.Feed,
		Score:       ev.Score,
		DefectCount: ev.DefectCount(),
		Regions:     regions,
		FrameWidth:  ev.FrameWidth,
		FrameHeight: ev.FrameHeight,
		Photo:       ev.Evidence.Photo,
		Histogram:   ev.Evidence.Histogram,
		DetectedAt:  ev.DetectedAt,
	}
}
