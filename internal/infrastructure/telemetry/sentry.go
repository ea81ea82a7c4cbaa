// Package telemetry отправляет фатальные ошибки потоков в Sentry.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// Reporter пишет сбои потоков в собственный hub, не трогая глобальный.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter создаёт репортёр для dsn. Пустой dsn даёт nil без ошибки.
func NewReporter(dsn, release string) (*Reporter, error) {
	if dsn == "" {
		return nil, nil
	}
	return newReporter(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
		SampleRate:       1.0,
	})
}

func newReporter(opts sentry.ClientOptions) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// ReportFault отправляет ошибку потока с метками feed и stage.
func (r *Reporter) ReportFault(status entity.FeedStatus) {
	if r == nil || status.Err == nil {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("feed", status.Feed)
		if stage, ok := entity.StageOf(status.Err); ok {
			scope.SetTag("stage", string(stage))
		}
		scope.SetContext("feed", map[string]any{
			"state":  string(status.State),
			"cycles": status.Cycles,
			"events": status.Events,
		})
		r.hub.CaptureException(status.Err)
	})
}

// Flush ждёт отправки накопленных событий.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r == nil {
		return true
	}
	return r.hub.Flush(timeout)
}

var _ port.FaultReporter = (*Reporter)(nil)
