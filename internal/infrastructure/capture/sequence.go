package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// ImageSequence проигрывает снимки из каталога в лексическом порядке.
type ImageSequence struct {
	dir    string
	files  []string
	width  int
	height int

	mu     sync.Mutex
	next   int
	closed bool
}

// NewImageSequence собирает png/jpeg файлы каталога.
func NewImageSequence(dir string) (*ImageSequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %v: %w", dir, err, entity.ErrSourceUnavailable)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images in %s: %w", dir, entity.ErrSourceUnavailable)
	}
	sort.Strings(files)

	w, h, err := decodeSize(files[0])
	if err != nil {
		return nil, err
	}

	return &ImageSequence{dir: dir, files: files, width: w, height: h}, nil
}

// Read возвращает следующий снимок; после последнего: ErrSourceUnavailable.
func (s *ImageSequence) Read(ctx context.Context) (*entity.FrameSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("sequence %s closed: %w", s.dir, entity.ErrSourceUnavailable)
	}
	if s.next >= len(s.files) {
		s.mu.Unlock()
		return nil, fmt.Errorf("sequence %s exhausted: %w", s.dir, entity.ErrSourceUnavailable)
	}
	path := s.files[s.next]
	s.next++
	seq := uint64(s.next)
	s.mu.Unlock()

	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return &entity.FrameSample{Seq: seq, Image: img, CapturedAt: time.Now()}, nil
}

// Size возвращает размер первого снимка.
func (s *ImageSequence) Size() (int, int) {
	return s.width, s.height
}

// Close помечает источник закрытым.
func (s *ImageSequence) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func decodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %v: %w", path, err, entity.ErrSourceUnavailable)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %v: %w", path, err, entity.ErrInvalidImage)
	}
	return cfg.Width, cfg.Height, nil
}

var _ port.FrameSource = (*ImageSequence)(nil)
