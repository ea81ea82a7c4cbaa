package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"line-inspector/config"
	telegram "line-inspector/internal/api"
	app "line-inspector/internal/application"
	"line-inspector/internal/domain/port"
	"line-inspector/internal/infrastructure/capture"
	"line-inspector/internal/infrastructure/evidence"
	"line-inspector/internal/infrastructure/metrics"
	"line-inspector/internal/infrastructure/mqtt"
	"line-inspector/internal/infrastructure/storage"
	"line-inspector/internal/infrastructure/telemetry"
	"line-inspector/internal/infrastructure/vision"
	"line-inspector/internal/logging"
)

// Release версия для отчётов о сбоях
const Release = "line-inspector@1.1.0"

type Container struct {
	Config        *config.Config
	Logger        *log.Logger
	Orchestrator  *app.Orchestrator
	Journal       *app.JournalSink
	Registry      *prometheus.Registry
	Metrics       *metrics.InspectionMetrics
	MetricsServer *metrics.Server
	Bot           *telegram.Bot
	Reporter      *telemetry.Reporter
	Space         evidence.Space

	closers []func() error
}

// New собирает конвейер по настройкам. opener == nil означает capture.Open.
// Ни один источник не открывается до запуска оркестратора.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opener port.SourceOpener) (*Container, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if opener == nil {
		opener = capture.Open
	}

	c := &Container{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	space, err := evidence.Preflight(cfg.Folder, cfg.CreateOutput, logger)
	if err != nil {
		return nil, err
	}
	c.Space = space

	reference, err := capture.LoadImage(cfg.Reference)
	if err != nil {
		return nil, fmt.Errorf("reference image: %w", err)
	}

	c.Registry = metrics.NewRegistry()
	c.Metrics, err = metrics.NewInspectionMetrics(c.Registry)
	if err != nil {
		return nil, err
	}
	if cfg.MetricsAddr != "" {
		c.MetricsServer, err = metrics.Listen(cfg.MetricsAddr, c.Registry, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, c.MetricsServer.Close)
	}

	c.Reporter, err = telemetry.NewReporter(cfg.SentryDSN, Release)
	if err != nil {
		return nil, err
	}

	repo, err := c.openJournal(cfg)
	if err != nil {
		return nil, err
	}
	c.Journal = app.NewJournalSink(repo)

	sinks := []port.EventSink{c.Journal}
	if bot := c.connectTelegram(cfg, repo); bot != nil {
		sinks = append(sinks, bot)
	}
	if pub := c.connectMQTT(ctx, cfg); pub != nil {
		sinks = append(sinks, pub)
	}

	inspection := app.NewInspectionService(
		newNormalizer(logger),
		vision.NewSSIMScorer(),
		vision.NewDefectExtractor(cfg.Threshold, cfg.MaxArea),
	)

	settings := app.FeedSettings{
		Feeds:         cfg.Feeds,
		ReferencePath: cfg.Reference,
		Reference:     reference,
		Width:         cfg.Width,
		Height:        cfg.Height,
		FieldOfView:   cfg.FieldOfView,
		Speed:         float64(cfg.Speed),
		Multi:         cfg.Multi,
	}
	deps := app.WorkerDeps{
		Inspection: inspection,
		Opener:     opener,
		Writer: evidence.NewWriter(cfg.Folder, evidence.Options{
			TagFeeds:    cfg.Multi,
			SaveRegions: cfg.SaveRegions,
		}),
		Sinks:    sinks,
		Observer: c.Metrics,
		Logger:   logger,
	}

	var reporter port.FaultReporter
	if c.Reporter != nil {
		reporter = c.Reporter
	}
	c.Orchestrator, err = app.NewOrchestrator(settings, deps, reporter)
	if err != nil {
		return nil, err
	}

	ok = true
	return c, nil
}

// Close освобождает внешние подключения в обратном порядке
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) openJournal(cfg *config.Config) (port.EventRepository, error) {
	if cfg.Journal == "" {
		return storage.NewMemoryEventRepository(), nil
	}

	repo, err := storage.OpenSQLiteEventRepository(cfg.Journal)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, repo.Close)
	c.Logger.Info("event journal", "path", cfg.Journal)
	return repo, nil
}

// connectTelegram включает уведомления; ошибка подключения не мешает инспекции
func (c *Container) connectTelegram(cfg *config.Config, repo port.EventRepository) *telegram.Bot {
	if !cfg.Telegram.Enabled() {
		return nil
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, repo, c.Logger)
	if err != nil {
		c.Logger.Warn("telegram notifications disabled", "err", err)
		return nil
	}
	c.Bot = bot
	return bot
}

// connectMQTT включает публикацию; ошибка подключения не мешает инспекции
func (c *Container) connectMQTT(ctx context.Context, cfg *config.Config) *mqtt.Publisher {
	if cfg.MQTT.Broker == "" {
		return nil
	}
	pub, err := mqtt.NewPublisher(mqtt.Config{
		Broker:   cfg.MQTT.Broker,
		Topic:    cfg.MQTT.Topic,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, c.Logger)
	if err == nil {
		err = pub.Connect(ctx)
	}
	if err != nil {
		c.Logger.Warn("mqtt publishing disabled", "broker", cfg.MQTT.Broker, "err", err)
		return nil
	}
	c.closers = append(c.closers, func() error {
		pub.Disconnect()
		return nil
	})
	return pub
}

// newNormalizer предпочитает OpenCV, если сборка с тегом gocv
func newNormalizer(logger *log.Logger) port.FrameNormalizer {
	n, err := vision.NewOpenCVNormalizer()
	if err != nil {
		logger.Debug("using pure Go normalizer", "reason", err)
		return vision.NewNormalizer()
	}
	return n
}
