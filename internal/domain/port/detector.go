package port

import (
	"image"

	"line-inspector/internal/domain/entity"
)

// FrameNormalizer приводит кадр к размеру эталона, серому цвету и сглаживает шум
type FrameNormalizer interface {
	// Normalize возвращает серое изображение ровно width x height
	Normalize(img image.Image, width, height int) (*image.Gray, error)
}

// SimilarityScorer сравнивает два нормализованных изображения одного размера
type SimilarityScorer interface {
	// Score возвращает общее сходство и карту расхождений 0..255
	Score(reference, current *image.Gray) (*entity.SimilarityResult, error)
}

// DefectDetector решает, есть ли в кадре дефекты, и перечисляет их
type DefectDetector interface {
	// Triggered сообщает, считается ли кадр с таким сходством подозрительным
	Triggered(score float64) bool

	// Extract находит области дефектов на карте расхождений
	Extract(diff *image.Gray) ([]entity.DefectRegion, error)
}
