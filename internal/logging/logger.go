// Package logging собирает корневой логгер приложения.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"line-inspector/internal/domain/entity"
)

// New создаёт логгер с уровнем level ("debug", "info", "warn", "error").
func New(level string, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl := log.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := log.ParseLevel(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, entity.ErrConfiguration)
		}
		lvl = parsed
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "inspector",
	}), nil
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ForFeed добавляет к логгеру идентификатор потока.
func ForFeed(logger *log.Logger, feed string) *log.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("feed", feed)
}
