package app

import (
	"context"
	"fmt"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// JournalSink записывает каждое событие в журнал.
type JournalSink struct {
	repo port.EventRepository
}

// NewJournalSink создаёт приёмник поверх репозитория событий.
func NewJournalSink(repo port.EventRepository) *JournalSink {
	return &JournalSink{repo: repo}
}

// Publish сохраняет запись о событии.
func (s *JournalSink) Publish(ctx context.Context, ev *entity.DetectionEvent) error {
	if err := s.repo.Save(ctx, entity.NewEventRecord(ev)); err != nil {
		return fmt.Errorf("journal event %s: %w", ev.ID, err)
	}
	return nil
}

// Summary возвращает число событий в журнале по потокам.
func (s *JournalSink) Summary(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByFeed(ctx)
}

var _ port.EventSink = (*JournalSink)(nil)
