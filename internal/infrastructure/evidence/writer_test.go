package evidence

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
)

var detectedAt = time.Date(2026, 3, 5, 14, 7, 9, 123456000, time.Local)

func testEvent(frameW, frameH int) *entity.DetectionEvent {
	frame := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	normalized := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range normalized.Pix {
		normalized.Pix[i] = 128
	}

	return &entity.DetectionEvent{
		ID:          "evt-1",
		Feed:        "cam-1",
		Frame:       frame,
		Normalized:  normalized,
		Score:       0.91,
		Regions:     []entity.DefectRegion{entity.NewDefectRegion(image.Rect(10, 10, 30, 30), 400)},
		DetectedAt:  detectedAt,
		FrameWidth:  frameW,
		FrameHeight: frameH,
	}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestWriter_Layout(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, Options{})

	paths, err := w.Write(testEvent(200, 100))
	require.NoError(t, err)

	dir := filepath.Join(root, "2026-03-05")
	require.Equal(t, filepath.Join(dir, "Photo_2026-03-05_14-07-09.123456.png"), paths.Photo)
	require.Equal(t, filepath.Join(dir, "Hist_2026-03-05_14-07-09.123456.png"), paths.Histogram)
	require.Empty(t, paths.Regions)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	hist := decodePNG(t, paths.Histogram)
	require.False(t, hist.Bounds().Empty())
}

func TestWriter_PhotoHasBoxes(t *testing.T) {
	w := NewWriter(t.TempDir(), Options{})

	paths, err := w.Write(testEvent(400, 200))
	require.NoError(t, err)

	photo := decodePNG(t, paths.Photo)
	require.Equal(t, image.Rect(0, 0, 200, 100), photo.Bounds())

	// левая сторона рамки проходит по x=10
	c := color.RGBAModel.Convert(photo.At(10, 20)).(color.RGBA)
	require.Greater(t, c.G, uint8(200))
	require.Less(t, c.R, uint8(60))

	// внутри рамки кадр не тронут
	inner := color.RGBAModel.Convert(photo.At(20, 20)).(color.RGBA)
	require.Equal(t, uint8(0), inner.G)
}

func TestWriter_TagFeedsAndRegions(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, Options{TagFeeds: true, SaveRegions: true})

	paths, err := w.Write(testEvent(200, 100))
	require.NoError(t, err)
	require.Equal(t, "Photo_2026-03-05_14-07-09.123456_cam-1.png", filepath.Base(paths.Photo))
	require.Len(t, paths.Regions, 1)
	require.Equal(t, "Region_2026-03-05_14-07-09.123456_cam-1_1.png", filepath.Base(paths.Regions[0]))

	crop := decodePNG(t, paths.Regions[0])
	require.Equal(t, 20, crop.Bounds().Dx())
	require.Equal(t, 20, crop.Bounds().Dy())
}

func TestWriter_CollisionIsWriteFailure(t *testing.T) {
	w := NewWriter(t.TempDir(), Options{})
	ev := testEvent(200, 100)

	_, err := w.Write(ev)
	require.NoError(t, err)

	_, err = w.Write(ev)
	require.ErrorIs(t, err, entity.ErrWriteFailure)
}

func TestWriter_RemovesPartialArtifacts(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, Options{})
	ev := testEvent(200, 100)

	dir := filepath.Join(root, "2026-03-05")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Hist_2026-03-05_14-07-09.123456.png"), nil, 0o644))

	_, err := w.Write(ev)
	require.ErrorIs(t, err, entity.ErrWriteFailure)
	require.NoFileExists(t, filepath.Join(dir, "Photo_2026-03-05_14-07-09.123456.png"))
}

func TestWriter_UnwritableRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewWriter(file, Options{}).Write(testEvent(200, 100))
	require.ErrorIs(t, err, entity.ErrWriteFailure)
}

func TestWriter_IncompleteEvent(t *testing.T) {
	ev := testEvent(200, 100)
	ev.Normalized = nil
	_, err := NewWriter(t.TempDir(), Options{}).Write(ev)
	require.ErrorIs(t, err, entity.ErrInvalidImage)
}

func TestCaption(t *testing.T) {
	ev := testEvent(640, 480)
	require.Equal(t,
		"Number of defects: 1. Time: 2026-03-05 14:07:09.123456. Width: 640. Height: 480.",
		Caption(ev))
}
