package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
	"line-inspector/internal/logging"
)

// WorkerDeps общие зависимости рабочих потоков. Все они потокобезопасны.
type WorkerDeps struct {
	Inspection *InspectionService
	Opener     port.SourceOpener
	Writer     port.EvidenceWriter
	Sinks      []port.EventSink
	Observer   port.InspectionObserver
	Logger     *log.Logger
}

// FeedWorker ведёт один поток: свой источник, свой эталон, своя пауза.
type FeedWorker struct {
	feed          string
	referencePath string
	reference     image.Image
	width         int
	height        int
	pacer         *Pacer
	deps          WorkerDeps
	logger        *log.Logger

	newID func() string
	now   func() time.Time
}

// NewFeedWorker создаёт обработчик потока feed.
func NewFeedWorker(feed string, settings FeedSettings, pacer *Pacer, deps WorkerDeps) *FeedWorker {
	return &FeedWorker{
		feed:          feed,
		referencePath: settings.ReferencePath,
		reference:     settings.Reference,
		width:         settings.Width,
		height:        settings.Height,
		pacer:         pacer,
		deps:          deps,
		logger:        logging.ForFeed(deps.Logger, feed),
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

// Feed возвращает идентификатор потока.
func (w *FeedWorker) Feed() string {
	return w.feed
}

// Run выполняет циклы инспекции до отмены ctx или фатальной ошибки.
// Источник освобождается при любом исходе, паника превращается в ошибку этапа panic.
func (w *FeedWorker) Run(ctx context.Context) (status entity.FeedStatus) {
	status = entity.FeedStatus{Feed: w.feed, State: entity.FeedStarting}
	var src port.FrameSource

	defer func() {
		if r := recover(); r != nil {
			status.Err = entity.NewStageError(w.feed, entity.StagePanic, fmt.Errorf("%v", r))
		}

		w.transition(&status, entity.FeedDraining)
		if src != nil {
			if err := src.Close(); err != nil {
				w.logger.Warn("release source", "err", err)
			}
		}
		w.transition(&status, entity.FeedStopped)

		if status.Err != nil {
			if stage, ok := entity.StageOf(status.Err); ok && w.deps.Observer != nil {
				w.deps.Observer.ObserveFailure(w.feed, stage)
			}
			w.logger.Error("feed stopped", "err", status.Err, "cycles", status.Cycles, "events", status.Events)
			return
		}
		w.logger.Info("feed stopped", "cycles", status.Cycles, "events", status.Events)
	}()

	opened, err := w.deps.Opener(w.feed)
	if err != nil {
		status.Err = entity.NewStageError(w.feed, entity.StageOpen, err)
		return status
	}
	src = opened

	profile, err := w.deps.Inspection.BuildProfile(w.referencePath, w.reference, w.width, w.height)
	if err != nil {
		status.Err = entity.NewStageError(w.feed, entity.StageReference, err)
		return status
	}

	w.transition(&status, entity.FeedRunning)
	w.logger.Info("feed running", "width", profile.Width, "height", profile.Height, "interval", w.pacer.Interval())

	for ctx.Err() == nil {
		cycleStart := w.now()

		sample, err := src.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			status.Err = entity.NewStageError(w.feed, entity.StageAcquire, err)
			return status
		}

		if err := w.cycle(ctx, profile, sample, cycleStart, &status); err != nil {
			status.Err = err
			return status
		}

		if err := w.pacer.Wait(ctx, cycleStart); err != nil {
			break
		}
	}
	return status
}

// cycle сравнивает кадр и при наличии дефектов сохраняет и рассылает событие.
func (w *FeedWorker) cycle(ctx context.Context, profile *entity.ReferenceProfile, sample *entity.FrameSample, cycleStart time.Time, status *entity.FeedStatus) error {
	out, err := w.deps.Inspection.Inspect(w.feed, profile, sample.Image)
	if err != nil {
		return err
	}
	status.Cycles++

	if w.deps.Observer != nil {
		w.deps.Observer.ObserveCycle(w.feed, out.Result, time.Since(cycleStart).Seconds())
	}
	w.logger.Debug("cycle", "seq", sample.Seq, "score", out.Result.Score, "triggered", out.Triggered)

	if !out.HasDefects() {
		return nil
	}

	bounds := sample.Image.Bounds()
	ev := &entity.DetectionEvent{
		ID:          w.newID(),
		Feed:        w.feed,
		Frame:       sample.Image,
		Normalized:  out.Normalized,
		Score:       out.Result.Score,
		Regions:     out.Regions,
		DetectedAt:  w.now(),
		FrameWidth:  bounds.Dx(),
		FrameHeight: bounds.Dy(),
	}

	paths, err := w.deps.Writer.Write(ev)
	if err != nil {
		return entity.NewStageError(w.feed, entity.StageWrite, err)
	}
	ev.Evidence = paths
	status.Events++

	if w.deps.Observer != nil {
		w.deps.Observer.ObserveDetection(w.feed, ev)
	}
	w.logger.Info("defects detected", "id", ev.ID, "count", ev.DefectCount(), "score", ev.Score, "photo", paths.Photo)

	for _, sink := range w.deps.Sinks {
		if err := sink.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warn("publish event", "id", ev.ID, "err", err)
		}
	}
	return nil
}

func (w *FeedWorker) transition(status *entity.FeedStatus, next entity.FeedState) {
	if !status.State.CanTransition(next) {
		w.logger.Debug("skip state transition", "from", status.State, "to", next)
		return
	}
	status.State = next
}
