package pipeline

import (
	"os"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

// Predict loads the model at modelPath and returns x.Rows × yCols
// predictions. The persisted model is never modified.
//
// パラメータ:
//   - x: 特徴量 (rows × xCols)
//   - yCols: 出力列数。モデルの出力数と一致しなければ SizeMismatch
//   - modelPath: TrainAndEvaluate が返したパス
func (c *Context) Predict(x dataset.Matrix, yCols int, modelPath string) (out dataset.Matrix, err error) {
	const op = "Predict"
	defer c.capture(op, &err)
	defer errors.Recover(&err, op)

	if err := c.checkReady(op); err != nil {
		return dataset.Matrix{}, err
	}
	if err := x.Validate(op, "x"); err != nil {
		return dataset.Matrix{}, err
	}
	if yCols <= 0 {
		return dataset.Matrix{}, errors.NewInvalidParameter(op, "y_cols", "must be positive")
	}
	n, err := dataset.Elements(op, x.Rows, yCols)
	if err != nil {
		return dataset.Matrix{}, err
	}
	raw, err := c.predictRaw(op, x, n, modelPath)
	if err != nil {
		return dataset.Matrix{}, err
	}
	return dataset.New(raw, x.Rows, yCols), nil
}

// PredictInto is Predict writing into a caller-owned buffer. dst must hold
// at least x.Rows*yCols values; it is left untouched on failure.
func (c *Context) PredictInto(x dataset.Matrix, dst []float32, yCols int, modelPath string) (err error) {
	const op = "PredictInto"
	defer c.capture(op, &err)
	defer errors.Recover(&err, op)

	if err := c.checkReady(op); err != nil {
		return err
	}
	if err := x.Validate(op, "x"); err != nil {
		return err
	}
	if yCols <= 0 {
		return errors.NewInvalidParameter(op, "y_cols", "must be positive")
	}
	n, err := dataset.Elements(op, x.Rows, yCols)
	if err != nil {
		return err
	}
	if len(dst) < n {
		return errors.NewInvalidParameter(op, "dst", "buffer smaller than rows*y_cols")
	}
	raw, err := c.predictRaw(op, x, n, modelPath)
	if err != nil {
		return err
	}
	copy(dst, raw)
	return nil
}

// predictRaw loads the model, runs inference and checks the element count.
func (c *Context) predictRaw(op string, x dataset.Matrix, want int, modelPath string) ([]float32, error) {
	if modelPath == "" {
		return nil, errors.NewInvalidParameter(op, "model_path", "empty")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, errors.NewFileIOError(op, modelPath, err)
	}
	logger := c.logger.With(log.OperationKey, log.OperationPredict, log.ModelPathKey, modelPath)

	var scope engine.Scope
	defer func() { _ = scope.Release() }()

	m, err := c.engine.NewMatrix(x)
	if err != nil {
		return nil, errors.NewEngineError(op, "bind matrix", err)
	}
	scope.Add(m)

	booster, err := c.engine.NewBooster()
	if err != nil {
		return nil, errors.NewEngineError(op, "create booster", err)
	}
	scope.Add(booster)

	if err := booster.LoadFile(modelPath); err != nil {
		if errors.StatusOf(err) == errors.FileIOError {
			return nil, err
		}
		return nil, errors.NewEngineError(op, booster.LastError(), err)
	}
	raw, err := booster.Predict(m)
	if err != nil {
		return nil, errors.NewEngineError(op, booster.LastError(), err)
	}
	if len(raw) != want {
		return nil, errors.NewSizeMismatch(op, want, len(raw))
	}
	logger.Debug("Prediction finished", log.PhaseKey, log.PhaseInference, log.SamplesKey, x.Rows)
	return raw, nil
}
