package port

import (
	"context"

	"line-inspector/internal/domain/entity"
)

// EventRepository интерфейс журнала событий
type EventRepository interface {
	// Save сохраняет запись о событии
	Save(ctx context.Context, record entity.EventRecord) error

	// ListByFeed возвращает последние записи потока, новые первыми
	ListByFeed(ctx context.Context, feed string, limit int) ([]entity.EventRecord, error)

	// CountByFeed возвращает число записей по каждому потоку
	CountByFeed(ctx context.Context) (map[string]int, error)
}
