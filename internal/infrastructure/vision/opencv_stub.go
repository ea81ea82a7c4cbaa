//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"line-inspector/internal/domain/port"
)

// ErrOpenCVDisabled сборка без тега gocv
var ErrOpenCVDisabled = errors.New("gocv build tag is not enabled")

// NewOpenCVNormalizer возвращает ошибку, если сборка без тега gocv.
func NewOpenCVNormalizer() (port.FrameNormalizer, error) {
	return nil, ErrOpenCVDisabled
}
