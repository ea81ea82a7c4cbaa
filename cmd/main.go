package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"line-inspector/config"
	"line-inspector/internal/container"
	"line-inspector/internal/domain/entity"
	"line-inspector/internal/logging"
)

func main() {
	config.LoadDotEnv()

	if err := rootCommand(config.NewViper()).Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCommand описывает флаги и связывает их с viper
func rootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "line-inspector",
		Short:         "Compare production line camera feeds against a reference image",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.StringP(config.KeyReference, "p", "", "Path to the reference image")
	f.StringP(config.KeyVideo, "v", "", "Camera index, video file, stream URL or image directory; comma separated with --multi")
	f.StringP(config.KeyDimension, "d", "", "Working resolution: width,height")
	f.StringP(config.KeyFolder, "f", "", "Folder for evidence images")
	f.IntP(config.KeySpeed, "s", 0, "Production line speed in m/min")
	f.BoolP(config.KeyMulti, "m", false, "Inspect several feeds concurrently")
	f.Float64P(config.KeyThreshold, "b", v.GetFloat64(config.KeyThreshold), "Frames scoring below this similarity are searched for defects")
	f.Float64P(config.KeyMaxArea, "a", 0, "Ignore defect regions with area at or above this value (0 disables)")
	f.Float64(config.KeyFieldOfView, v.GetFloat64(config.KeyFieldOfView), "Length of the line visible in the frame, meters")
	f.Bool(config.KeyCreateOutput, false, "Create the output folder when it does not exist")
	f.Bool(config.KeySaveRegions, false, "Also save a crop of every defect region")
	f.String(config.KeyMetricsAddr, "", "Serve Prometheus metrics on this address, e.g. :9108")
	f.String(config.KeyMQTTBroker, "", "Publish events to this MQTT broker, e.g. tcp://localhost:1883")
	f.String(config.KeyMQTTTopic, v.GetString(config.KeyMQTTTopic), "Base MQTT topic; the feed tag is appended")
	f.String(config.KeyJournal, "", "SQLite file for the event journal (in memory when empty)")
	f.String(config.KeyLogLevel, v.GetString(config.KeyLogLevel), "Log level: debug, info, warn, error")

	if err := v.BindPFlags(f); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}
	return cmd
}

func run(parent context.Context, v *viper.Viper) error {
	if parent == nil {
		parent = context.Background()
	}

	logger, err := logging.New(v.GetString(config.KeyLogLevel), os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("release resources", "err", err)
		}
		c.Reporter.Flush(5 * time.Second)
	}()

	logger.Info("inspection started",
		"feeds", len(cfg.Feeds), "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"speed", cfg.Speed, "threshold", cfg.Threshold, "output", cfg.Folder)
	started := time.Now()

	// Сервисы вокруг инспекции живут до её окончания
	svcCtx, stopServices := context.WithCancel(ctx)
	var services errgroup.Group
	if c.MetricsServer != nil {
		services.Go(func() error { return c.MetricsServer.Serve(svcCtx) })
	}
	if c.Bot != nil {
		services.Go(func() error { return c.Bot.Run(svcCtx) })
	}

	statuses := c.Orchestrator.Run(ctx)
	stopServices()
	if err := services.Wait(); err != nil {
		logger.Warn("auxiliary service stopped", "err", err)
	}

	return summarize(ctx, logger, c, statuses, time.Since(started))
}

// summarize печатает итог по потокам; ошибка хотя бы одного потока даёт ненулевой код
func summarize(ctx context.Context, logger *log.Logger, c *container.Container, statuses []entity.FeedStatus, elapsed time.Duration) error {
	journaled, err := c.Journal.Summary(context.WithoutCancel(ctx))
	if err != nil {
		logger.Warn("journal summary unavailable", "err", err)
	}

	var failed []error
	for _, st := range statuses {
		fields := []any{"feed", st.Feed, "state", st.State, "cycles", st.Cycles, "events", st.Events, "journaled", journaled[st.Feed]}
		if st.Failed() {
			logger.Error("feed failed", append(fields, "err", st.Err)...)
			failed = append(failed, st.Err)
			continue
		}
		logger.Info("feed finished", fields...)
	}

	logger.Info("inspection stopped", "elapsed", elapsed.Round(time.Second), "output", c.Config.Folder)
	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "Images were saved in %s.\n", c.Config.Folder)
	}
	return errors.Join(failed...)
}
