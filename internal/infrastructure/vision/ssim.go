package vision

import (
	"fmt"
	"image"
	"math"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
)

// SSIMScorer считает структурное сходство по локальным окнам:
// яркость, контраст и структура сравниваются в каждом окне.
type SSIMScorer struct {
	WindowSize int     // сторона квадратного окна, нечётная
	K1         float64 // стабилизатор для яркости
	K2         float64 // стабилизатор для контраста
	DataRange  float64 // диапазон значений пикселя
}

// NewSSIMScorer создаёт оценщик с окном 7x7 для 8-битных изображений.
func NewSSIMScorer() *SSIMScorer {
	return &SSIMScorer{
		WindowSize: 7,
		K1:         0.01,
		K2:         0.03,
		DataRange:  255,
	}
}

// Score сравнивает эталон и кадр. В карте расхождений 0 значит полное совпадение окна, 255 отсутствие сходства.
func (s *SSIMScorer) Score(reference, current *image.Gray) (*entity.SimilarityResult, error) {
	if reference == nil || current == nil {
		return nil, fmt.Errorf("score: nil image: %w", entity.ErrInvalidImage)
	}
	rb, cb := reference.Bounds(), current.Bounds()
	w, h := rb.Dx(), rb.Dy()
	if w != cb.Dx() || h != cb.Dy() {
		return nil, fmt.Errorf("score: size mismatch %dx%d vs %dx%d: %w", w, h, cb.Dx(), cb.Dy(), entity.ErrInvalidImage)
	}
	win := s.WindowSize
	if win < 3 || win%2 == 0 {
		return nil, fmt.Errorf("score: window size %d: %w", win, entity.ErrConfiguration)
	}
	if w < win || h < win {
		return nil, fmt.Errorf("score: image %dx%d smaller than window %d: %w", w, h, win, entity.ErrInvalidImage)
	}

	diff := image.NewGray(image.Rect(0, 0, w, h))
	if sameGray(reference, current) {
		return &entity.SimilarityResult{Score: 1, Diff: diff}, nil
	}

	n := w * h
	x := grayToFloat(reference)
	y := grayToFloat(current)
	xx := make([]float64, n)
	yy := make([]float64, n)
	xy := make([]float64, n)
	for i := 0; i < n; i++ {
		xx[i] = x[i] * x[i]
		yy[i] = y[i] * y[i]
		xy[i] = x[i] * y[i]
	}

	ux := uniformFilter(x, w, h, win)
	uy := uniformFilter(y, w, h, win)
	uxx := uniformFilter(xx, w, h, win)
	uyy := uniformFilter(yy, w, h, win)
	uxy := uniformFilter(xy, w, h, win)

	np := float64(win * win)
	covNorm := np / (np - 1)
	c1 := (s.K1 * s.DataRange) * (s.K1 * s.DataRange)
	c2 := (s.K2 * s.DataRange) * (s.K2 * s.DataRange)

	pad := (win - 1) / 2
	var total float64
	var count int
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			vx := covNorm * (uxx[i] - ux[i]*ux[i])
			vy := covNorm * (uyy[i] - uy[i]*uy[i])
			vxy := covNorm * (uxy[i] - ux[i]*uy[i])

			a1 := 2*ux[i]*uy[i] + c1
			a2 := 2*vxy + c2
			b1 := ux[i]*ux[i] + uy[i]*uy[i] + c1
			b2 := vx + vy + c2
			ssim := (a1 * a2) / (b1 * b2)

			diff.Pix[row*diff.Stride+col] = disagreement(ssim)

			// Края, где окно выходит за изображение, в общую оценку не входят.
			if row >= pad && row < h-pad && col >= pad && col < w-pad {
				total += ssim
				count++
			}
		}
	}

	return &entity.SimilarityResult{Score: total / float64(count), Diff: diff}, nil
}

// disagreement переводит локальное сходство в 8-битное расхождение.
func disagreement(ssim float64) uint8 {
	if ssim > 1 {
		ssim = 1
	}
	if ssim < 0 {
		ssim = 0
	}
	return clampUint8(math.Round((1 - ssim) * 255))
}

// uniformFilter усредняет по окну win x win, края отражаются симметрично (d c b a | a b c d).
func uniformFilter(src []float64, w, h, win int) []float64 {
	half := win / 2
	tmp := make([]float64, len(src))
	dst := make([]float64, len(src))
	inv := 1 / float64(win)

	for row := 0; row < h; row++ {
		line := src[row*w : row*w+w]
		for col := 0; col < w; col++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += line[reflectSymmetric(col+k, w)]
			}
			tmp[row*w+col] = sum * inv
		}
	}
	for col := 0; col < w; col++ {
		for row := 0; row < h; row++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += tmp[reflectSymmetric(row+k, h)*w+col]
			}
			dst[row*w+col] = sum * inv
		}
	}
	return dst
}

// reflectSymmetric отражает индекс с повтором крайнего пикселя: -1 -> 0, n -> n-1.
func reflectSymmetric(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - 1 - i
		}
	}
	return i
}

func grayToFloat(img *image.Gray) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	base := img.PixOffset(b.Min.X, b.Min.Y)
	for row := 0; row < h; row++ {
		line := img.Pix[base+row*img.Stride : base+row*img.Stride+w]
		for col, v := range line {
			out[row*w+col] = float64(v)
		}
	}
	return out
}

// sameGray сравнивает изображения побайтно с учётом шага строки.
func sameGray(a, b *image.Gray) bool {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	aBase := a.PixOffset(ab.Min.X, ab.Min.Y)
	bBase := b.PixOffset(bb.Min.X, bb.Min.Y)
	for row := 0; row < h; row++ {
		ar := a.Pix[aBase+row*a.Stride : aBase+row*a.Stride+w]
		br := b.Pix[bBase+row*b.Stride : bBase+row*b.Stride+w]
		for i := range ar {
			if ar[i] != br[i] {
				return false
			}
		}
	}
	return true
}

var _ port.SimilarityScorer = (*SSIMScorer)(nil)
