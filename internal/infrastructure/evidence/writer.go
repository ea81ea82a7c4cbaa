// Package evidence сохраняет артефакты событий с дефектами на диск.
package evidence

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

const (
	// DateLayout имя дневного каталога.
	DateLayout = "2006-01-02"
	// StampLayout отметка времени в именах файлов, с микросекундами.
	StampLayout = "2006-01-02_15-04-05.000000"
)

// Options настраивают раскладку файлов.
type Options struct {
	TagFeeds    bool // добавлять метку потока к именам (несколько потоков в одном каталоге)
	SaveRegions bool // сохранять вырезки областей дефектов
}

// Writer пишет снимок с разметкой, гистограмму и вырезки в root/<дата>/.
type Writer struct {
	root string
	opts Options
}

// NewWriter создаёт писатель с корневым каталогом root.
func NewWriter(root string, opts Options) *Writer {
	return &Writer{root: root, opts: opts}
}

// Root возвращает корневой каталог.
func (w *Writer) Root() string {
	return w.root
}

// Write сохраняет артефакты события. Уже записанные файлы удаляются, если следующий не удался.
func (w *Writer) Write(ev *entity.DetectionEvent) (entity.EvidencePaths, error) {
	var paths entity.EvidencePaths
	if ev == nil || ev.Frame == nil || ev.Normalized == nil {
		return paths, fmt.Errorf("evidence: incomplete event: %w", entity.ErrInvalidImage)
	}

	dir := filepath.Join(w.root, ev.DetectedAt.Format(DateLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, fmt.Errorf("evidence: create %s: %v: %w", dir, err, entity.ErrWriteFailure)
	}

	stem := ev.DetectedAt.Format(StampLayout)
	if w.opts.TagFeeds {
		stem += "_" + entity.FeedTag(ev.Feed)
	}

	var written []string
	fail := func(err error) (entity.EvidencePaths, error) {
		for _, p := range written {
			_ = os.Remove(p)
		}
		return entity.EvidencePaths{}, err
	}

	photo := filepath.Join(dir, "Photo_"+stem+".png")
	if err := writeExclusive(photo, func(out io.Writer) error {
		return renderPhoto(out, ev)
	}); err != nil {
		return fail(err)
	}
	written = append(written, photo)
	paths.Photo = photo

	hist := filepath.Join(dir, "Hist_"+stem+".png")
	if err := writeExclusive(hist, func(out io.Writer) error {
		return renderHistogram(out, ev.Normalized)
	}); err != nil {
		return fail(err)
	}
	written = append(written, hist)
	paths.Histogram = hist

	if w.opts.SaveRegions {
		for i, r := range ev.Regions {
			crop := ev.Normalized.SubImage(r.Rect())
			if crop.Bounds().Empty() {
				continue
			}
			name := filepath.Join(dir, fmt.Sprintf("Region_%s_%d.png", stem, i+1))
			if err := writeExclusive(name, func(out io.Writer) error {
				return png.Encode(out, crop)
			}); err != nil {
				return fail(err)
			}
			written = append(written, name)
			paths.Regions = append(paths.Regions, name)
		}
	}

	return paths, nil
}

// writeExclusive создаёт новый файл и пишет в него; существующий файл не трогается.
func writeExclusive(path string, render func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("evidence: %s already exists: %w", path, entity.ErrWriteFailure)
		}
		return fmt.Errorf("evidence: create %s: %v: %w", path, err, entity.ErrWriteFailure)
	}

	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("evidence: write %s: %v: %w", path, err, entity.ErrWriteFailure)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("evidence: close %s: %v: %w", path, err, entity.ErrWriteFailure)
	}
	return nil
}

var _ port.EvidenceWriter = (*Writer)(nil)
