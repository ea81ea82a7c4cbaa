package storage

import (
	"context"
	"sort"
	"sync"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// MemoryEventRepository in-memory журнал событий
type MemoryEventRepository struct {
	mu     sync.RWMutex
	byFeed map[string][]entity.EventRecord
}

// NewMemoryEventRepository создаёт новое in-memory хранилище
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		byFeed: make(map[string][]entity.EventRecord),
	}
}

// Save добавляет запись в журнал потока
func (r *MemoryEventRepository) Save(ctx context.Context, record entity.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.byFeed[record.Feed] = append(r.byFeed[record.Feed], record)
	r.mu.Unlock()

	return nil
}

// ListByFeed возвращает последние записи потока, новые первыми
func (r *MemoryEventRepository) ListByFeed(ctx context.Context, feed string, limit int) ([]entity.EventRecord, error) {
	r.mu.RLock()
	stored := r.byFeed[feed]
	records := make([]entity.EventRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		records = append(records, stored[i])
	}
	r.mu.RUnlock()

	// При равном времени первой остаётся запись, добавленная позже
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DetectedAt.After(records[j].DetectedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// CountByFeed возвращает число записей по каждому потоку
func (r *MemoryEventRepository) CountByFeed(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.byFeed))
	for feed, records := range r.byFeed {
		counts[feed] = len(records)
	}
	return counts, nil
}

// Проверка реализации интерфейса
var _ port.EventRepository = (*MemoryEventRepository)(nil)
