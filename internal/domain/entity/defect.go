package entity

import "image"

// DefectRegion представляет область кадра, похожую на дефект
type DefectRegion struct {
	X           int     // координата X левого верхнего угла
	Y           int     // координата Y левого верхнего угла
	Width       int     // ширина области в пикселях
	Height      int     // высота области в пикселях
	Area        int     // площадь связной области в пикселях
	AspectRatio float64 // отношение ширины к высоте
}

// NewDefectRegion собирает область по ограничивающему прямоугольнику и площади.
func NewDefectRegion(rect image.Rectangle, area int) DefectRegion {
	r := DefectRegion{
		X:      rect.Min.X,
		Y:      rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Area:   area,
	}
	if r.Height > 0 {
		r.AspectRatio = float64(r.Width) / float64(r.Height)
	}
	return r
}

// Center возвращает координаты центра дефекта
func (d DefectRegion) Center() (x, y int) {
	return d.X + d.Width/2, d.Y + d.Height/2
}

// Rect возвращает ограничивающий прямоугольник области
func (d DefectRegion) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}
