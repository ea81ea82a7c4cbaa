package vision

import (
	"fmt"
	"image"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// DefaultSimilarityThreshold кадр со сходством ниже этого значения проверяется на дефекты.
// Дефект 20x20 на поле 200x100 опускает общее сходство только до ~0.96.
const DefaultSimilarityThreshold = 0.98

// DefectExtractor выделяет области дефектов на карте расхождений.
type DefectExtractor struct {
	Threshold float64 // срабатывание при score < Threshold
	MaxArea   float64 // 0: без фильтра, иначе принимаются только area < MaxArea
}

// NewDefectExtractor создаёт экстрактор с порогом сходства и фильтром площади.
func NewDefectExtractor(threshold, maxArea float64) *DefectExtractor {
	return &DefectExtractor{
		Threshold: threshold,
		MaxArea:   maxArea,
	}
}

// Triggered сообщает, что кадр отличается от эталона сильнее порога.
func (e *DefectExtractor) Triggered(score float64) bool {
	return score < e.Threshold
}

// Extract бинаризует карту по Оцу и возвращает внешние связные области.
func (e *DefectExtractor) Extract(diff *image.Gray) ([]entity.DefectRegion, error) {
	if diff == nil || diff.Bounds().Empty() {
		return nil, fmt.Errorf("extract: empty difference map: %w", entity.ErrInvalidImage)
	}

	b := diff.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := Binarize(diff, OtsuThreshold(diff))

	blobs := externalBlobs(mask, w, h)
	regions := make([]entity.DefectRegion, 0, len(blobs))
	for _, bl := range blobs {
		if e.MaxArea > 0 && float64(bl.area) >= e.MaxArea {
			continue
		}
		regions = append(regions, entity.NewDefectRegion(bl.rect, bl.area))
	}
	return regions, nil
}

var _ port.DefectDetector = (*DefectExtractor)(nil)
