package capture

import (
	"fmt"
	"image"
	_ "image/jpeg" // регистрация декодеров
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// Open открывает источник по идентификатору потока. Число открывает камеру,
// каталог читается как последовательность снимков, остальное считается видеофайлом или потоком.
func Open(feed string) (port.FrameSource, error) {
	feed = strings.TrimSpace(feed)
	if feed == "" {
		return nil, fmt.Errorf("open feed: empty identifier: %w", entity.ErrSourceUnavailable)
	}

	if idx, err := strconv.Atoi(feed); err == nil {
		return openDevice(idx)
	}

	if strings.Contains(feed, "://") {
		return openVideo(feed)
	}

	info, err := os.Stat(feed)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %v: %w", feed, err, entity.ErrSourceUnavailable)
	}
	if info.IsDir() {
		return NewImageSequence(feed)
	}
	return openVideo(feed)
}

// LoadImage читает и декодирует изображение с диска.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %v: %w", path, err, entity.ErrInvalidImage)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %v: %w", path, err, entity.ErrInvalidImage)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode image %s: zero area: %w", path, entity.ErrInvalidImage)
	}
	return img, nil
}
