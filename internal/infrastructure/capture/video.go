//go:build gocv
// +build gocv

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// VideoSource читает кадры с камеры, из видеофайла или сетевого потока через OpenCV.
type VideoSource struct {
	name    string
	capture *gocv.VideoCapture
	frame   gocv.Mat
	width   int
	height  int

	mu  sync.Mutex
	seq uint64
}

func openDevice(index int) (port.FrameSource, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %v: %w", index, err, entity.ErrSourceUnavailable)
	}
	return newVideoSource(fmt.Sprintf("camera %d", index), vc)
}

func openVideo(uri string) (port.FrameSource, error) {
	vc, err := gocv.VideoCaptureFile(uri)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %v: %w", uri, err, entity.ErrSourceUnavailable)
	}
	return newVideoSource(uri, vc)
}

func newVideoSource(name string, vc *gocv.VideoCapture) (*VideoSource, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture %s is not opened: %w", name, entity.ErrSourceUnavailable)
	}
	return &VideoSource{
		name:    name,
		capture: vc,
		frame:   gocv.NewMat(),
		width:   int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Read блокируется до следующего кадра. Зависший источник не прерывается по таймауту.
func (s *VideoSource) Read(ctx context.Context) (*entity.FrameSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, fmt.Errorf("capture %s stopped yielding frames: %w", s.name, entity.ErrSourceUnavailable)
	}
	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("capture %s: convert frame: %v: %w", s.name, err, entity.ErrInvalidImage)
	}
	s.seq++
	return &entity.FrameSample{Seq: s.seq, Image: img, CapturedAt: time.Now()}, nil
}

// Size возвращает разрешение, заявленное устройством.
func (s *VideoSource) Size() (int, int) {
	return s.width, s.height
}

// Close освобождает устройство и буфер кадра.
func (s *VideoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Close()
	return s.capture.Close()
}

var _ port.FrameSource = (*VideoSource)(nil)
