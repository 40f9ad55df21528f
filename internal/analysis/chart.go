package analysis

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	chartTitle  = "Зависимость калорийности от времени приготовления"
	chartXLabel = "Время приготовления (минуты)"
	chartYLabel = "Калории (ккал)"
)

// half transparent red
var pointColor = color.NRGBA{R: 255, A: 128}

// NewScatter builds the calories over cook time plot.
func NewScatter(points []Point) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chartTitle
	p.X.Label.Text = chartXLabel
	p.Y.Label.Text = chartYLabel
	p.Add(plotter.NewGrid())

	if len(points) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(points))
	for i, point := range points {
		xys[i].X = float64(point.Minutes)
		xys[i].Y = float64(point.Calories)
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)

	return p, nil
}

// RenderScatter saves the plot of `points` to `path`, the image format is picked
// from the file extension (png, svg, pdf, ...).
func RenderScatter(points []Point, path string) error {
	p, err := NewScatter(points)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	err = p.Save(7*vg.Inch, 5*vg.Inch, path)
	if err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}
