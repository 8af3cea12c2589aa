package gbdt

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// calculateGradients fills grad and hess for one output column.
// preds and labels are row-major with the given width; k selects the column.
func calculateGradients(objective string, preds, labels []float64, width, k int, grad, hess []float64) {
	rows := len(grad)
	switch objective {
	case ObjectiveAbsoluteError:
		// L = |p - y|, gradient sign(p - y), unit hessian
		for i := 0; i < rows; i++ {
			d := preds[i*width+k] - labels[i*width+k]
			switch {
			case d > 0:
				grad[i] = 1
			case d < 0:
				grad[i] = -1
			default:
				grad[i] = 0
			}
			hess[i] = 1
		}
	default:
		// L = ½(p - y)², gradient p - y, hessian 1
		for i := 0; i < rows; i++ {
			grad[i] = preds[i*width+k] - labels[i*width+k]
			hess[i] = 1
		}
	}
}

// calculateBaseScore returns the initial prediction for every output:
// the column mean for squared error, the column median for absolute error.
func calculateBaseScore(objective string, labels []float64, rows, width int) []float64 {
	base := make([]float64, width)
	col := make([]float64, rows)
	for k := 0; k < width; k++ {
		for i := 0; i < rows; i++ {
			col[i] = labels[i*width+k]
		}
		switch objective {
		case ObjectiveAbsoluteError:
			sort.Float64s(col)
			base[k] = stat.Quantile(0.5, stat.Empirical, col, nil)
		default:
			base[k] = stat.Mean(col, nil)
		}
	}
	return base
}
