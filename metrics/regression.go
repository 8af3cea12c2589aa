package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkVectors("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}
	r2 := r2(yTrue.RawVector().Data, yPred.RawVector().Data)
	if math.IsNaN(r2) {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return r2, nil
}

func checkVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// RMSEColumns は出力列ごとのRMSEを計算する
//
//	rmse[j] = sqrt( Σ_i (pred[i,j] - actual[i,j])² / rows )
//
// 累積はfloat64で行う。NaNやInfはそのまま結果に伝播する。
//
// パラメータ:
//   - pred: 予測値 (rows × cols)
//   - actual: 実測値 (rows × cols)
//
// 戻り値:
//   - []float64: 列ごとのRMSE (長さ cols)
//   - error: 形状が一致しない場合 DimensionError
func RMSEColumns(pred, actual dataset.Matrix) ([]float64, error) {
	if err := checkMatrices("RMSEColumns", pred, actual); err != nil {
		return nil, err
	}
	out := make([]float64, actual.Cols)
	for i := 0; i < actual.Rows; i++ {
		p, a := pred.Row(i), actual.Row(i)
		for j := range out {
			d := float64(p[j]) - float64(a[j])
			out[j] += d * d
		}
	}
	n := float64(actual.Rows)
	for j := range out {
		out[j] = math.Sqrt(out[j] / n)
	}
	return out, nil
}

// RMSE32 は行優先のfloat32スライスに対するRMSEColumnsの簡易版
func RMSE32(pred, actual []float32, rows, cols int) ([]float64, error) {
	return RMSEColumns(dataset.New(pred, rows, cols), dataset.New(actual, rows, cols))
}

// MAEColumns は出力列ごとのMAEを計算する
func MAEColumns(pred, actual dataset.Matrix) ([]float64, error) {
	if err := checkMatrices("MAEColumns", pred, actual); err != nil {
		return nil, err
	}
	out := make([]float64, actual.Cols)
	for i := 0; i < actual.Rows; i++ {
		p, a := pred.Row(i), actual.Row(i)
		for j := range out {
			out[j] += math.Abs(float64(p[j]) - float64(a[j]))
		}
	}
	for j := range out {
		out[j] /= float64(actual.Rows)
	}
	return out, nil
}

// R2Columns は出力列ごとの決定係数を計算する。
// 実測値が定数の列はNaNになる。
func R2Columns(pred, actual dataset.Matrix) ([]float64, error) {
	if err := checkMatrices("R2Columns", pred, actual); err != nil {
		return nil, err
	}
	out := make([]float64, actual.Cols)
	for j := range out {
		out[j] = r2(actual.Column(j).RawVector().Data, pred.Column(j).RawVector().Data)
	}
	return out, nil
}

func r2(yTrue, yPred []float64) float64 {
	yMean := stat.Mean(yTrue, nil)
	var tss, rss float64
	for i, y := range yTrue {
		tss += (y - yMean) * (y - yMean)
		rss += (y - yPred[i]) * (y - yPred[i])
	}
	if tss == 0 {
		return math.NaN()
	}
	return 1 - rss/tss
}

func checkMatrices(op string, pred, actual dataset.Matrix) error {
	if err := actual.Validate(op, "actual"); err != nil {
		return err
	}
	if err := pred.Validate(op, "pred"); err != nil {
		return err
	}
	if pred.Rows != actual.Rows {
		return errors.NewDimensionError(op, actual.Rows, pred.Rows, 0)
	}
	if pred.Cols != actual.Cols {
		return errors.NewDimensionError(op, actual.Cols, pred.Cols, 1)
	}
	return nil
}
