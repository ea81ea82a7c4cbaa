package vision

import "image"

// blob связная область переднего плана
type blob struct {
	first image.Point     // первый пиксель в порядке развёртки
	rect  image.Rectangle // ограничивающий прямоугольник
	area  int             // число пикселей
}

// externalBlobs находит связные области маски (8-связность) и оставляет только внешние:
// области внутри дыр других областей отбрасываются.
// Порядок совпадает с порядком развёртки первых пикселей.
func externalBlobs(mask []bool, w, h int) []blob {
	labels := make([]int32, w*h)
	blobs := make([]blob, 0)
	queue := make([]int, 0, 64)

	for start := range mask {
		if !mask[start] || labels[start] != 0 {
			continue
		}
		id := int32(len(blobs) + 1)
		sx, sy := start%w, start/w
		b := blob{
			first: image.Pt(sx, sy),
			rect:  image.Rect(sx, sy, sx+1, sy+1),
		}

		labels[start] = id
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w
			b.area++
			b.rect = b.rect.Union(image.Rect(x, y, x+1, y+1))

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
						continue
					}
					n := ny*w + nx
					if mask[n] && labels[n] == 0 {
						labels[n] = id
						queue = append(queue, n)
					}
				}
			}
		}
		blobs = append(blobs, b)
	}

	if len(blobs) == 0 {
		return blobs
	}

	outer := outerBackground(mask, w, h)
	external := blobs[:0]
	for _, b := range blobs {
		// Пиксель над первым пикселем области всегда фон и лежит в охватывающей её области фона.
		if b.first.Y == 0 || outer[(b.first.Y-1)*w+b.first.X] {
			external = append(external, b)
		}
	}
	return external
}

// outerBackground отмечает пиксели фона, связанные (4-связность) с рамкой изображения.
func outerBackground(mask []bool, w, h int) []bool {
	outer := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	push := func(idx int) {
		if !mask[idx] && !outer[idx] {
			outer[idx] = true
			queue = append(queue, idx)
		}
	}
	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}

	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := idx%w, idx/w
		if x > 0 {
			push(idx - 1)
		}
		if x < w-1 {
			push(idx + 1)
		}
		if y > 0 {
			push(idx - w)
		}
		if y < h-1 {
			push(idx + w)
		}
	}
	return outer
}
