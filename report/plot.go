package report

import (
	"image/color"
	"math"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// PlotPredictions writes a predicted-vs-actual scatter for target column col
// to path. The image format follows the extension (.png, .svg, .pdf).
// The identity line marks perfect predictions.
func PlotPredictions(path string, pred, actual dataset.Matrix, col int) error {
	const op = "PlotPredictions"
	if pred.Rows != actual.Rows {
		return errors.NewDimensionError(op, actual.Rows, pred.Rows, 0)
	}
	if pred.Cols != actual.Cols {
		return errors.NewDimensionError(op, actual.Cols, pred.Cols, 1)
	}
	if col < 0 || col >= pred.Cols {
		return errors.NewInvalidParameter(op, "col", "out of range")
	}

	pts := make(plotter.XYs, pred.Rows)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range pts {
		pts[i].X = float64(actual.At(i, col))
		pts[i].Y = float64(pred.At(i, col))
		lo = math.Min(lo, math.Min(pts[i].X, pts[i].Y))
		hi = math.Max(hi, math.Max(pts[i].X, pts[i].Y))
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual (target " + strconv.Itoa(col+1) + ")"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "scatter")
	}
	s.GlyphStyle.Color = color.RGBA{R: 20, G: 80, B: 200, A: 200}
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	p.Legend.Add("test rows", s)

	ident := plotter.NewFunction(func(x float64) float64 { return x })
	ident.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	ident.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ident)
	p.Legend.Add("y = x", ident)

	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	p.X.Min, p.X.Max = lo-pad, hi+pad
	p.Y.Min, p.Y.Max = lo-pad, hi+pad

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	return nil
}

// PlotPath is the plot file name for a persisted model and target column.
func PlotPath(dir, modelPath string, col int) string {
	base := filepath.Base(modelPath)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, base+"_target"+strconv.Itoa(col+1)+".png")
}
