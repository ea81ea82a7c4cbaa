package vision

import (
	"image"
	"image/color"
	"image/draw"

	"line-inspector/internal/domain/entity"
)

func plainGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Gray{Y: v}}, image.Point{}, draw.Src)
	return img
}

func withSquare(src *image.Gray, r image.Rectangle, v uint8) *image.Gray {
	out := image.NewGray(src.Bounds())
	copy(out.Pix, src.Pix)
	draw.Draw(out, r, &image.Uniform{C: color.Gray{Y: v}}, image.Point{}, draw.Src)
	return out
}

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(60 + (x*120)/w)})
		}
	}
	return img
}

func regionRects(regions []entity.DefectRegion) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		out = append(out, r.Rect())
	}
	return out
}
