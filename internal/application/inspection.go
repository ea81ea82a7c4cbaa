package app

import (
	"errors"
	"fmt"
	"image"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// InspectionService выполняет один цикл сравнения кадра с эталоном.
type InspectionService struct {
	normalizer port.FrameNormalizer
	scorer     port.SimilarityScorer
	detector   port.DefectDetector
}

// InspectionOutput содержит результат одного цикла инспекции.
type InspectionOutput struct {
	Normalized *image.Gray
	Result     *entity.SimilarityResult
	Triggered  bool
	Regions    []entity.DefectRegion
}

// HasDefects сообщает, нужно ли создавать событие.
func (o *InspectionOutput) HasDefects() bool {
	return o.Triggered && len(o.Regions) > 0
}

// NewInspectionService создаёт сервис, который управляет проверкой дефектов.
func NewInspectionService(normalizer port.FrameNormalizer, scorer port.SimilarityScorer, detector port.DefectDetector) *InspectionService {
	return &InspectionService{
		normalizer: normalizer,
		scorer:     scorer,
		detector:   detector,
	}
}

// BuildProfile нормализует эталон под заданный размер.
func (s *InspectionService) BuildProfile(source string, reference image.Image, width, height int) (*entity.ReferenceProfile, error) {
	if s.normalizer == nil {
		return nil, errors.New("normalizer is not configured")
	}
	if reference == nil {
		return nil, fmt.Errorf("reference %s is empty: %w", source, entity.ErrInvalidImage)
	}

	gray, err := s.normalizer.Normalize(reference, width, height)
	if err != nil {
		return nil, fmt.Errorf("normalize reference %s: %w", source, err)
	}
	return &entity.ReferenceProfile{
		Source: source,
		Width:  width,
		Height: height,
		Image:  gray,
	}, nil
}

// Inspect сравнивает кадр с эталоном и при срабатывании ищет области дефектов.
// Ошибки помечаются этапом, на котором они возникли.
func (s *InspectionService) Inspect(feed string, profile *entity.ReferenceProfile, frame image.Image) (*InspectionOutput, error) {
	if s.scorer == nil || s.detector == nil {
		return nil, errors.New("inspection pipeline is not configured")
	}

	normalized, err := s.normalizer.Normalize(frame, profile.Width, profile.Height)
	if err != nil {
		return nil, entity.NewStageError(feed, entity.StageNormalize, err)
	}

	result, err := s.scorer.Score(profile.Image, normalized)
	if err != nil {
		return nil, entity.NewStageError(feed, entity.StageScore, err)
	}

	out := &InspectionOutput{Normalized: normalized, Result: result}
	if !s.detector.Triggered(result.Score) {
		return out, nil
	}
	out.Triggered = true

	regions, err := s.detector.Extract(result.Diff)
	if err != nil {
		return nil, entity.NewStageError(feed, entity.StageExtract, err)
	}
	out.Regions = regions
	return out, nil
}
