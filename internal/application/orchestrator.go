package app

import (
	"context"
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
	"line-inspector/internal/logging"
)

// FeedSettings общие параметры всех потоков запуска.
type FeedSettings struct {
	Feeds         []string
	ReferencePath string
	Reference     image.Image
	Width         int
	Height        int
	FieldOfView   float64
	Speed         float64 // м/мин
	Multi         bool
}

// Orchestrator запускает потоки и собирает их итоговые статусы.
type Orchestrator struct {
	workers  []*FeedWorker
	multi    bool
	reporter port.FaultReporter
	logger   *log.Logger
}

// NewOrchestrator проверяет настройки и готовит по обработчику на поток.
// Ни один источник не открывается до Run.
func NewOrchestrator(settings FeedSettings, deps WorkerDeps, reporter port.FaultReporter) (*Orchestrator, error) {
	if len(settings.Feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured: %w", entity.ErrConfiguration)
	}
	if !settings.Multi && len(settings.Feeds) > 1 {
		return nil, fmt.Errorf("%d feeds given without multi mode: %w", len(settings.Feeds), entity.ErrConfiguration)
	}
	if settings.Width <= 0 || settings.Height <= 0 {
		return nil, fmt.Errorf("dimension %dx%d must be positive: %w", settings.Width, settings.Height, entity.ErrConfiguration)
	}
	if deps.Inspection == nil || deps.Opener == nil || deps.Writer == nil {
		return nil, fmt.Errorf("inspection pipeline is incomplete: %w", entity.ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(settings.Feeds))
	workers := make([]*FeedWorker, 0, len(settings.Feeds))
	for _, feed := range settings.Feeds {
		if _, dup := seen[feed]; dup {
			return nil, fmt.Errorf("feed %s listed twice: %w", feed, entity.ErrConfiguration)
		}
		seen[feed] = struct{}{}

		pacer, err := NewPacer(settings.FieldOfView, settings.Speed)
		if err != nil {
			return nil, err
		}
		workers = append(workers, NewFeedWorker(feed, settings, pacer, deps))
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Orchestrator{
		workers:  workers,
		multi:    settings.Multi,
		reporter: reporter,
		logger:   logger,
	}, nil
}

// Run блокируется до остановки всех потоков и возвращает статусы в порядке конфигурации.
// Ошибка одного потока не останавливает остальные.
func (o *Orchestrator) Run(ctx context.Context) []entity.FeedStatus {
	statuses := make([]entity.FeedStatus, len(o.workers))

	if !o.multi {
		statuses[0] = o.workers[0].Run(ctx)
	} else {
		// Без WithContext: у потоков нет общей отмены
		var g errgroup.Group
		for i, w := range o.workers {
			g.Go(func() error {
				statuses[i] = w.Run(ctx)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, st := range statuses {
		if st.Failed() && o.reporter != nil {
			o.reporter.ReportFault(st)
		}
	}
	o.logger.Info("all feeds stopped", "feeds", len(statuses))
	return statuses
}

// Feeds возвращает идентификаторы потоков в порядке конфигурации.
func (o *Orchestrator) Feeds() []string {
	feeds := make([]string, len(o.workers))
	for i, w := range o.workers {
		feeds[i] = w.Feed()
	}
	return feeds
}
