package evidence

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/gift"
	"github.com/fogleman/gg"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/infrastructure/vision"
)

var (
	boxColor  = color.RGBA{G: 255, A: 255}
	textColor = color.RGBA{R: 255, A: 255}
)

// Caption текст поверх снимка.
func Caption(ev *entity.DetectionEvent) string {
	return fmt.Sprintf("Number of defects: %d. Time: %s. Width: %d. Height: %d.",
		ev.DefectCount(), ev.DetectedAt.Format("2006-01-02 15:04:05.000000"), ev.FrameWidth, ev.FrameHeight)
}

// Annotate масштабирует кадр к размеру нормализованного изображения и рисует рамки и подпись.
func Annotate(ev *entity.DetectionEvent) image.Image {
	nb := ev.Normalized.Bounds()

	frame := ev.Frame
	if frame.Bounds().Dx() != nb.Dx() || frame.Bounds().Dy() != nb.Dy() {
		g := gift.New(gift.Resize(nb.Dx(), nb.Dy(), gift.BoxResampling))
		resized := image.NewRGBA(g.Bounds(frame.Bounds()))
		g.Draw(resized, frame)
		frame = resized
	}

	dc := gg.NewContextForImage(frame)
	dc.SetColor(boxColor)
	dc.SetLineWidth(2)
	for _, r := range ev.Regions {
		dc.DrawRectangle(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height))
		dc.Stroke()
	}

	dc.SetColor(textColor)
	dc.DrawString(Caption(ev), 10, 50)
	return dc.Image()
}

func renderPhoto(w io.Writer, ev *entity.DetectionEvent) error {
	return png.Encode(w, Annotate(ev))
}

// renderHistogram строит ступенчатую гистограмму яркостей на 256 корзин.
func renderHistogram(w io.Writer, img *image.Gray) error {
	counts := vision.Histogram(img)

	pts := make(plotter.XYs, len(counts)+1)
	for i, c := range counts {
		pts[i].X = float64(i)
		pts[i].Y = float64(c)
	}
	pts[len(counts)].X = float64(len(counts))
	pts[len(counts)].Y = float64(counts[len(counts)-1])

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("histogram line: %w", err)
	}
	line.StepStyle = plotter.PostStep
	line.Color = textColor

	grid := plotter.NewGrid()
	dashes := []vg.Length{vg.Points(4), vg.Points(2)}
	grid.Vertical.Dashes = dashes
	grid.Horizontal.Dashes = dashes

	p := plot.New()
	p.Title.Text = "Grayscale histogram"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Pixels"
	p.X.Min = 0
	p.X.Max = 256
	p.Add(grid, line)

	wt, err := p.WriterTo(6.4*vg.Inch, 4.8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("histogram canvas: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
