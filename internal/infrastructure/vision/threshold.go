package vision

import "image"

// degenerateThreshold оставляет передним планом только полное расхождение (255).
const degenerateThreshold = 254

// OtsuThreshold выбирает порог, максимизирующий межклассовую дисперсию гистограммы.
// Пиксели со значением <= порога относятся к фону. Если занято меньше двух уровней
// яркости (равномерный сдвиг освещения), возвращается degenerateThreshold.
func OtsuThreshold(img *image.Gray) uint8 {
	hist := Histogram(img)

	var total, sumAll float64
	occupied := 0
	for i, c := range hist {
		if c > 0 {
			occupied++
		}
		total += float64(c)
		sumAll += float64(i) * float64(c)
	}
	if occupied < 2 {
		return degenerateThreshold
	}

	var w0, sum0, best float64
	var threshold uint8
	for i := 0; i < 256; i++ {
		w0 += float64(hist[i])
		sum0 += float64(i) * float64(hist[i])
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		m0 := sum0 / w0
		m1 := (sumAll - sum0) / w1
		between := w0 * w1 * (m0 - m1) * (m0 - m1)
		if between > best {
			best = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// Histogram считает число пикселей каждой яркости.
func Histogram(img *image.Gray) [256]int {
	var hist [256]int
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	base := img.PixOffset(b.Min.X, b.Min.Y)
	for row := 0; row < h; row++ {
		for _, v := range img.Pix[base+row*img.Stride : base+row*img.Stride+w] {
			hist[v]++
		}
	}
	return hist
}

// Binarize возвращает маску пикселей ярче порога, построчно без учёта Min.
func Binarize(img *image.Gray, threshold uint8) []bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)
	base := img.PixOffset(b.Min.X, b.Min.Y)
	for row := 0; row < h; row++ {
		for col, v := range img.Pix[base+row*img.Stride : base+row*img.Stride+w] {
			mask[row*w+col] = v > threshold
		}
	}
	return mask
}
