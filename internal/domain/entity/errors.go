package entity

import (
	"errors"
	"fmt"
)

// Категории ошибок конвейера. Проверяются через errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInvalidImage      = errors.New("invalid image")
	ErrWriteFailure      = errors.New("write failure")
)

// Stage этап цикла, на котором произошла ошибка
type Stage string

const (
	StageOpen      Stage = "open"
	StageReference Stage = "reference"
	StageAcquire   Stage = "acquire"
	StageNormalize Stage = "normalize"
	StageScore     Stage = "score"
	StageExtract   Stage = "extract"
	StageWrite     Stage = "write"
	StagePace      Stage = "pace"
	StagePanic     Stage = "panic"
)

// StageError связывает ошибку с потоком и этапом
type StageError struct {
	Feed  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("feed %s: %s: %v", e.Feed, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError оборачивает err, nil остаётся nil
func NewStageError(feed string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Feed: feed, Stage: stage, Err: err}
}

// StageOf возвращает этап из цепочки ошибок, если он есть
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
