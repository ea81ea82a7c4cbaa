//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// OpenCVNormalizer нормализует кадры средствами OpenCV.
type OpenCVNormalizer struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewOpenCVNormalizer создаёт нормализатор на OpenCV с параметрами по умолчанию.
func NewOpenCVNormalizer() (port.FrameNormalizer, error) {
	return &OpenCVNormalizer{
		Diameter:   DefaultBilateralDiameter,
		SigmaColor: DefaultSigmaColor,
		SigmaSpace: DefaultSigmaSpace,
	}, nil
}

// Normalize: resize (INTER_AREA) -> серый -> bilateralFilter.
func (n *OpenCVNormalizer) Normalize(img image.Image, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("normalize: target %dx%d: %w", width, height, entity.ErrConfiguration)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("normalize: empty frame: %w", entity.ErrInvalidImage)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("normalize: convert frame: %w", entity.ErrInvalidImage)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("normalize: empty mat: %w", entity.ErrInvalidImage)
	}

	// Приводим к размеру эталона усреднением по площади.
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)

	// Сглаживаем шум сенсора, сохраняя границы.
	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(gray, &smooth, n.Diameter, n.SigmaColor, n.SigmaSpace)

	return matToGray(smooth)
}

// matToGray копирует одноканальный Mat в image.Gray.
func matToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("expected 1 channel, got %d: %w", mat.Channels(), entity.ErrInvalidImage)
	}
	w, h := mat.Cols(), mat.Rows()
	data := mat.ToBytes()
	if len(data) < w*h {
		return nil, fmt.Errorf("short mat buffer: %w", entity.ErrInvalidImage)
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, data[:w*h])
	return out, nil
}
