package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// eventRow строка таблицы events
type eventRow struct {
	ID            string  `gorm:"primaryKey;size:36"`
	Feed          string  `gorm:"index;not null"`
	Score         float64 `gorm:"not null"`
	DefectCount   int     `gorm:"not null"`
	PhotoPath     string
	HistogramPath string
	DetectedAt    time.Time `gorm:"index;not null"`
}

func (eventRow) TableName() string {
	return "events"
}

func rowFromRecord(r entity.EventRecord) eventRow {
	return eventRow{
		ID:            r.ID,
		Feed:          r.Feed,
		Score:         r.Score,
		DefectCount:   r.DefectCount,
		PhotoPath:     r.PhotoPath,
		HistogramPath: r.HistogramPath,
		DetectedAt:    r.DetectedAt,
	}
}

func (row eventRow) record() entity.EventRecord {
	return entity.EventRecord{
		ID:            row.ID,
		Feed:          row.Feed,
		Score:         row.Score,
		DefectCount:   row.DefectCount,
		PhotoPath:     row.PhotoPath,
		HistogramPath: row.HistogramPath,
		DetectedAt:    row.DetectedAt,
	}
}

// SQLiteEventRepository журнал событий в файле SQLite
type SQLiteEventRepository struct {
	db *gorm.DB
}

// OpenSQLiteEventRepository открывает базу по пути path и создаёт таблицу при необходимости
func OpenSQLiteEventRepository(path string) (*SQLiteEventRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir %s: %v: %w", dir, err, entity.ErrWriteFailure)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite journal %s: %w", path, err)
	}
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate SQLite journal: %w", err)
	}

	return &SQLiteEventRepository{db: db}, nil
}

// Save вставляет запись о событии
func (r *SQLiteEventRepository) Save(ctx context.Context, record entity.EventRecord) error {
	row := rowFromRecord(record)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save event %s: %w", record.ID, err)
	}
	return nil
}

// ListByFeed возвращает последние записи потока, новые первыми
func (r *SQLiteEventRepository) ListByFeed(ctx context.Context, feed string, limit int) ([]entity.EventRecord, error) {
	q := r.db.WithContext(ctx).Where("feed = ?", feed).Order("detected_at DESC").Order("rowid DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []eventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list events for %s: %w", feed, err)
	}

	records := make([]entity.EventRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// CountByFeed возвращает число записей по каждому потоку
func (r *SQLiteEventRepository) CountByFeed(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Feed  string
		Total int
	}
	err := r.db.WithContext(ctx).
		Model(&eventRow{}).
		Select("feed, COUNT(*) AS total").
		Group("feed").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Feed] = row.Total
	}
	return counts, nil
}

// Close закрывает соединение с базой
func (r *SQLiteEventRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ port.EventRepository = (*SQLiteEventRepository)(nil)
