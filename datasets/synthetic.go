// Package datasets はデモ・テスト用の合成データと CSV データセットの入出力を提供します。
//
// 生成器はすべて rng.Source を受け取るので、同じシードからは
// 同じデータが得られます。
package datasets

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Regression generates rows samples with features uniform on [0, 1) and
// targets
//
//	y_k = Σ_j w_kj·x_j + sin(2π(k+1)·x_0) + ε,  ε ~ N(0, noise²)
//
// where w_kj = (j+1)/(k+1) alternating in sign with k.
func Regression(rows, features, targets int, noise float64, src rng.Source) (x, y dataset.Matrix, err error) {
	const op = "datasets.Regression"
	if features <= 0 {
		return x, y, errors.NewInvalidParameter(op, "features", "must be positive")
	}
	if targets <= 0 {
		return x, y, errors.NewInvalidParameter(op, "targets", "must be positive")
	}
	if noise < 0 || math.IsNaN(noise) {
		return x, y, errors.NewInvalidParameter(op, "noise", "must be >= 0")
	}
	if x, err = dataset.Zeros(op, rows, features); err != nil {
		return x, y, err
	}
	if y, err = dataset.Zeros(op, rows, targets); err != nil {
		return x, y, err
	}

	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}
	eps := distuv.Normal{Mu: 0, Sigma: noise, Src: src}
	for i := 0; i < rows; i++ {
		xr := x.Row(i)
		for j := range xr {
			xr[j] = float32(unif.Rand())
		}
		yr := y.Row(i)
		for k := range yr {
			sign := 1.0
			if k%2 == 1 {
				sign = -1
			}
			v := math.Sin(2 * math.Pi * float64(k+1) * float64(xr[0]))
			for j, xv := range xr {
				v += sign * float64(j+1) / float64(k+1) * float64(xv)
			}
			if noise > 0 {
				v += eps.Rand()
			}
			yr[k] = float32(v)
		}
	}
	return x, y, nil
}

// Parameter bounds of DistributionParams.
const (
	MuMin, MuMax       = 0.2, 0.8
	SigmaMin, SigmaMax = 0.05, 1.0 / 6.0
)

// DistributionParams generates a parameter-recovery dataset. Each row draws
// μ and σ uniformly within the bounds above, takes draws samples from
// N(μ, σ²), and records the empirical quantiles at levels 1/(q+1)…q/(q+1)
// as features. The targets are (μ, σ).
func DistributionParams(rows, draws, quantiles int, src rng.Source) (x, y dataset.Matrix, err error) {
	const op = "datasets.DistributionParams"
	if draws < 2 {
		return x, y, errors.NewInvalidParameter(op, "draws", "must be >= 2")
	}
	if quantiles <= 0 {
		return x, y, errors.NewInvalidParameter(op, "quantiles", "must be positive")
	}
	if x, err = dataset.Zeros(op, rows, quantiles); err != nil {
		return x, y, err
	}
	if y, err = dataset.Zeros(op, rows, 2); err != nil {
		return x, y, err
	}

	muDist := distuv.Uniform{Min: MuMin, Max: MuMax, Src: src}
	sigmaDist := distuv.Uniform{Min: SigmaMin, Max: SigmaMax, Src: src}
	sample := make([]float64, draws)
	for i := 0; i < rows; i++ {
		mu, sigma := muDist.Rand(), sigmaDist.Rand()
		n := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
		for d := range sample {
			sample[d] = n.Rand()
		}
		sort.Float64s(sample)

		xr := x.Row(i)
		for q := range xr {
			p := float64(q+1) / float64(quantiles+1)
			xr[q] = float32(stat.Quantile(p, stat.Empirical, sample, nil))
		}
		y.Data[2*i] = float32(mu)
		y.Data[2*i+1] = float32(sigma)
	}
	return x, y, nil
}
