//go:build !gocv
// +build !gocv

package capture

import (
	"fmt"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

func openDevice(index int) (port.FrameSource, error) {
	return nil, fmt.Errorf("open camera %d: gocv build tag is not enabled: %w", index, entity.ErrSourceUnavailable)
}

func openVideo(uri string) (port.FrameSource, error) {
	return nil, fmt.Errorf("open video %s: gocv build tag is not enabled: %w", uri, entity.ErrSourceUnavailable)
}
