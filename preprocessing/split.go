package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Partition は並べ替え後の行インデックスを訓練用とテスト用に分けたもの
// 両者は互いに素で、合わせると [0, rows) の置換になる
type Partition struct {
	// Train は訓練行のインデックス（シャッフル順）
	Train []int
	// Test はテスト行のインデックス（シャッフル順）
	Test []int
}

// Split はTrainTestSplitの結果
type Split struct {
	XTrain dataset.Matrix
	YTrain dataset.Matrix
	XTest  dataset.Matrix
	YTest  dataset.Matrix
	Partition
}

// Shuffle は [0, n) のインデックスをFisher–Yatesで並べ替える
//
// パラメータ:
//   - n: 要素数 (n > 0)
//   - src: 乱数源。同じシードなら同じ置換を返す
//
// 戻り値:
//   - []int: [0, n) の置換
//   - error: n <= 0 または src が nil の場合 InvalidParameter
//
// 使用例:
//
//	perm, err := preprocessing.Shuffle(10, rng.NewSplitMix64(42))
func Shuffle(n int, src rng.Source) (perm []int, err error) {
	const op = "Shuffle"
	if n <= 0 {
		return nil, errors.NewInvalidParameter(op, "n", "must be positive")
	}
	if src == nil {
		return nil, errors.NewInvalidParameter(op, "src", "random source is nil")
	}
	defer errors.RecoverAlloc(&err, op)
	perm = make([]int, n)
	if err := ShuffleInto(perm, src); err != nil {
		return nil, err
	}
	return perm, nil
}

// ShuffleInto は呼び出し側のバッファ dst を [0, len(dst)) の置換で埋める
func ShuffleInto(dst []int, src rng.Source) error {
	const op = "ShuffleInto"
	if len(dst) == 0 {
		return errors.NewInvalidParameter(op, "dst", "destination is empty")
	}
	if src == nil {
		return errors.NewInvalidParameter(op, "src", "random source is nil")
	}
	for i := range dst {
		dst[i] = i
	}
	for i := len(dst) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		dst[i], dst[j] = dst[j], dst[i]
	}
	return nil
}

// RowsForRatio は訓練行数 floor(rows*ratio) を返す
// ratio は (0, 1) の範囲、結果は (0, rows) の範囲でなければならない
func RowsForRatio(rows int, ratio float64) (int, error) {
	const op = "RowsForRatio"
	if rows <= 0 {
		return 0, errors.NewInvalidParameter(op, "rows", "must be positive")
	}
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return 0, errors.NewInvalidParameter(op, "train_ratio", "must be in (0, 1)")
	}
	n := int(math.Floor(float64(rows) * ratio))
	if n <= 0 || n >= rows {
		return 0, errors.NewInvalidParameter(op, "train_ratio", "leaves an empty train or test set")
	}
	return n, nil
}

// TrainTestSplit は特徴量行列 x と目的変数行列 y を行単位で訓練用とテスト用に分割する
//
// 行はShuffleの置換順に並べられ、先頭 rowsTrain 行が訓練用、残りがテスト用になる。
// x と y の行は常に同じ添字で対応する。入力は変更しない。
//
// パラメータ:
//   - x: 特徴量 (rows × xCols)
//   - y: 目的変数 (rows × yCols)
//   - rowsTrain: 訓練行数 (0 < rowsTrain < rows)
//   - src: 乱数源
//
// 戻り値:
//   - *Split: 分割結果
//   - error: 引数が不正な場合 InvalidParameter、確保に失敗した場合 MemoryError
func TrainTestSplit(x, y dataset.Matrix, rowsTrain int, src rng.Source) (split *Split, err error) {
	const op = "TrainTestSplit"
	if err := x.Validate(op, "x"); err != nil {
		return nil, err
	}
	if err := y.Validate(op, "y"); err != nil {
		return nil, err
	}
	if x.Rows != y.Rows {
		return nil, errors.NewInvalidParameter(op, "y", "x and y row counts differ")
	}
	rows := x.Rows
	if rowsTrain <= 0 || rowsTrain >= rows {
		return nil, errors.NewInvalidParameter(op, "rows_train", "must satisfy 0 < rows_train < rows")
	}
	if src == nil {
		return nil, errors.NewInvalidParameter(op, "src", "random source is nil")
	}
	rowsTest := rows - rowsTrain

	// 出力を作る前にすべてのバッファを確保する
	defer errors.RecoverAlloc(&err, op)
	if _, err := dataset.Elements(op, rowsTrain, x.Cols); err != nil {
		return nil, err
	}
	if _, err := dataset.Elements(op, rowsTrain, y.Cols); err != nil {
		return nil, err
	}
	perm, err := Shuffle(rows, src)
	if err != nil {
		return nil, err
	}
	s := &Split{
		XTrain: dataset.New(make([]float32, rowsTrain*x.Cols), rowsTrain, x.Cols),
		YTrain: dataset.New(make([]float32, rowsTrain*y.Cols), rowsTrain, y.Cols),
		XTest:  dataset.New(make([]float32, rowsTest*x.Cols), rowsTest, x.Cols),
		YTest:  dataset.New(make([]float32, rowsTest*y.Cols), rowsTest, y.Cols),
		Partition: Partition{
			Train: perm[:rowsTrain:rowsTrain],
			Test:  perm[rowsTrain:],
		},
	}

	for i, r := range s.Train {
		copy(s.XTrain.Row(i), x.Row(r))
		copy(s.YTrain.Row(i), y.Row(r))
	}
	for i, r := range s.Test {
		copy(s.XTest.Row(i), x.Row(r))
		copy(s.YTest.Row(i), y.Row(r))
	}
	return s, nil
}
