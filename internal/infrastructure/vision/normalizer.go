package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// Параметры билатерального фильтра, подобранные под съёмку линии.
const (
	DefaultBilateralDiameter = 9
	DefaultSigmaColor        = 75.0
	DefaultSigmaSpace        = 75.0
)

// Normalizer приводит кадр к серому изображению нужного размера без OpenCV.
type Normalizer struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewNormalizer создаёт нормализатор с параметрами по умолчанию.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Diameter:   DefaultBilateralDiameter,
		SigmaColor: DefaultSigmaColor,
		SigmaSpace: DefaultSigmaSpace,
	}
}

// Normalize уменьшает кадр усреднением по площади, переводит в серый и сглаживает шум.
func (n *Normalizer) Normalize(img image.Image, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("normalize: target %dx%d: %w", width, height, entity.ErrConfiguration)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("normalize: empty frame: %w", entity.ErrInvalidImage)
	}

	g := gift.New(
		gift.Resize(width, height, gift.BoxResampling),
		gift.Grayscale(),
	)
	gray := image.NewGray(g.Bounds(img.Bounds()))
	g.Draw(gray, img)

	return Bilateral(gray, n.Diameter, n.SigmaColor, n.SigmaSpace), nil
}

// Bilateral сглаживает ровные участки и сохраняет резкие перепады яркости.
// Соседство круглое, края отражаются без повтора крайнего пикселя.
func Bilateral(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	radius := diameter / 2
	if radius < 1 {
		radius = 1
	}

	// Веса по яркости считаем один раз для всех возможных разностей.
	var colorWeight [256]float64
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	type offset struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	offsets := make([]offset, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			offsets = append(offsets, offset{dx: dx, dy: dy, weight: math.Exp(r2 * spaceCoeff)})
		}
	}

	base := src.PixOffset(b.Min.X, b.Min.Y)
	at := func(x, y int) uint8 {
		return src.Pix[base+y*src.Stride+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := int(at(x, y))
			var sum, wsum float64
			for _, o := range offsets {
				v := int(at(reflect101(x+o.dx, w), reflect101(y+o.dy, h)))
				d := v - center
				if d < 0 {
					d = -d
				}
				wt := o.weight * colorWeight[d]
				sum += wt * float64(v)
				wsum += wt
			}
			dst.Pix[y*dst.Stride+x] = clampUint8(math.Round(sum / wsum))
		}
	}
	return dst
}

// reflect101 отражает индекс за границей: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

var _ port.FrameNormalizer = (*Normalizer)(nil)
