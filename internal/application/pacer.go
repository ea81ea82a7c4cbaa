package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"line-inspector/internal/domain/entity"
)

// DefaultFieldOfView длина участка линии в кадре, метры.
const DefaultFieldOfView = 3.0

// Pacer выдерживает паузу между циклами, чтобы участок линии успел смениться.
type Pacer struct {
	fieldOfView float64
	speed       float64
	interval    time.Duration
}

// NewPacer создаёт контроллер для длины поля зрения (м) и скорости линии (м/мин).
func NewPacer(fieldOfView, speedMPerMin float64) (*Pacer, error) {
	if math.IsNaN(fieldOfView) || math.IsInf(fieldOfView, 0) || fieldOfView <= 0 {
		return nil, fmt.Errorf("field of view %.3f m must be positive: %w", fieldOfView, entity.ErrConfiguration)
	}
	if math.IsNaN(speedMPerMin) || math.IsInf(speedMPerMin, 0) || speedMPerMin <= 0 {
		return nil, fmt.Errorf("line speed %.3f m/min must be positive: %w", speedMPerMin, entity.ErrConfiguration)
	}

	// fov / (speed / 60)
	seconds := fieldOfView * 60 / speedMPerMin
	return &Pacer{
		fieldOfView: fieldOfView,
		speed:       speedMPerMin,
		interval:    time.Duration(math.Round(seconds * float64(time.Second))),
	}, nil
}

// Interval минимальное время от начала одного цикла до начала следующего.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait спит остаток интервала от cycleStart. Отмена ctx прерывает ожидание.
func (p *Pacer) Wait(ctx context.Context, cycleStart time.Time) error {
	remaining := p.interval - time.Since(cycleStart)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
