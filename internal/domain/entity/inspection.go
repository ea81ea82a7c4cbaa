package entity

import (
	"image"
	"time"
)

// ReferenceProfile: нормализованный эталон, с которым сравнивается каждый кадр.
// Создаётся один раз на поток и больше не меняется.
type ReferenceProfile struct {
	Source string      // путь к исходному эталону
	Width  int         // ширина после нормализации
	Height int         // высота после нормализации
	Image  *image.Gray // сглаженный серый эталон
}

// FrameSample: один кадр, полученный из источника.
type FrameSample struct {
	Seq        uint64      // порядковый номер кадра в потоке
	Image      image.Image // кадр в исходном разрешении
	CapturedAt time.Time   // время захвата
}

// SimilarityResult хранит итог сравнения кадра с эталоном.
type SimilarityResult struct {
	Score float64     // структурное сходство в диапазоне [-1, 1]
	Diff  *image.Gray // карта расхождений 0..255, 0: совпадение
}

// EvidencePaths: пути к сохранённым артефактам события.
type EvidencePaths struct {
	Photo     string
	Histogram string
	Regions   []string
}

// DetectionEvent создаётся, когда кадр признан дефектным и в нём остались области.
type DetectionEvent struct {
	ID          string
	Feed        string
	Frame       image.Image // исходный кадр
	Normalized  *image.Gray // нормализованный кадр, по нему строится гистограмма
	Score       float64     // сходство, вызвавшее срабатывание
	Regions     []DefectRegion
	DetectedAt  time.Time
	FrameWidth  int // размеры кадра источника
	FrameHeight int
	Evidence    EvidencePaths
}

// DefectCount возвращает число найденных областей.
func (e *DetectionEvent) DefectCount() int {
	return len(e.Regions)
}
