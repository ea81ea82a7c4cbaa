package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/infrastructure/storage"
)

func TestJournalSink_Publish(t *testing.T) {
	repo := storage.NewMemoryEventRepository()
	sink := NewJournalSink(repo)
	ctx := context.Background()

	ev := &entity.DetectionEvent{
		ID:         "e1",
		Feed:       "cam-0",
		Score:      0.93,
		Regions:    make([]entity.DefectRegion, 2),
		DetectedAt: time.Now(),
		Evidence:   entity.EvidencePaths{Photo: "p.png", Histogram: "h.png"},
	}
	require.NoError(t, sink.Publish(ctx, ev))

	records, err := repo.ListByFeed(ctx, "cam-0", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 2, records[0].DefectCount)
	require.Equal(t, "p.png", records[0].PhotoPath)

	summary, err := sink.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"cam-0": 1}, summary)
}
