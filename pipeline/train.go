package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/metrics"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
	"github.com/YuminosukeSato/boostflow/preprocessing"
)

// TrainResult describes one completed TrainAndEvaluate run.
type TrainResult struct {
	// ModelPath is the file the model was written to.
	ModelPath string
	// RMSE, MAE and R2 hold one value per target column on the test split.
	RMSE []float64
	MAE  []float64
	R2   []float64

	RowsTrain  int
	RowsTest   int
	Iterations int
	Elapsed    time.Duration

	// Split is the train/test partition the metrics were computed on.
	Split *preprocessing.Split
}

type trainOptions struct {
	pathBuf []byte
	atomic  bool
	format  *engine.Format
}

// TrainOption configures a single TrainAndEvaluate or Train call.
type TrainOption func(*trainOptions)

// WithPathBuffer copies the resolved model path into buf (see CopyPath) as
// soon as it is known. The buffer is not rolled back if a later step fails.
func WithPathBuffer(buf []byte) TrainOption {
	return func(o *trainOptions) { o.pathBuf = buf }
}

// WithAtomicPersist writes the model to a temporary file and renames it
// into place.
func WithAtomicPersist() TrainOption {
	return func(o *trainOptions) { o.atomic = true }
}

// WithModelFormat overrides the Context's default model format.
func WithModelFormat(f engine.Format) TrainOption {
	return func(o *trainOptions) { o.format = &f }
}

// TrainAndEvaluate partitions x and y, trains a booster on the training
// rows, evaluates it on the held-out rows, and persists the model as
// {outputDir}/{modelName}_{YYYYMMDD_HHMMSS}.{ext}.
//
// Every argument is validated before anything is allocated, and the
// iteration count is resolved before any engine handle exists. Engine
// handles are released on every return path.
func (c *Context) TrainAndEvaluate(
	x, y dataset.Matrix,
	trainRatio float64,
	params []Param,
	outputDir, modelName string,
	opts ...TrainOption,
) (res *TrainResult, err error) {
	const op = "TrainAndEvaluate"
	defer c.capture(op, &err)
	defer errors.Recover(&err, op)

	if err := c.checkReady(op); err != nil {
		return nil, err
	}
	o := c.trainOptions(opts)

	// 0. validate
	if err := x.Validate(op, "x"); err != nil {
		return nil, err
	}
	if err := y.Validate(op, "y"); err != nil {
		return nil, err
	}
	if x.Rows != y.Rows {
		return nil, errors.NewInvalidParameter(op, "y", "x and y row counts differ")
	}
	if outputDir == "" {
		return nil, errors.NewInvalidParameter(op, "output_dir", "empty")
	}
	if modelName == "" {
		return nil, errors.NewInvalidParameter(op, "model_name", "empty")
	}
	rowsTrain, err := preprocessing.RowsForRatio(x.Rows, trainRatio)
	if err != nil {
		return nil, err
	}
	iterations, err := IterationCount(params)
	if err != nil {
		return nil, err
	}

	start := c.clock()
	logger := c.logger.With(log.OperationKey, log.OperationTrainAndEvaluate, log.ModelNameKey, modelName)
	logger.Info("Training started",
		log.SamplesKey, x.Rows,
		log.FeaturesKey, x.Cols,
		log.TargetsKey, y.Cols,
		log.IterationsKey, iterations,
	)

	// 1. partition
	split, err := preprocessing.TrainTestSplit(x, y, rowsTrain, c.src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Data partitioned", log.TrainRowsKey, split.XTrain.Rows, log.TestRowsKey, split.XTest.Rows)

	var scope engine.Scope
	defer func() {
		if rerr := scope.Release(); rerr != nil {
			logger.Warn("Releasing engine handles failed", log.ErrAttrKey, rerr)
		}
	}()

	// 2-4. bind, configure, iterate
	booster, err := c.fit(&scope, logger, split.XTrain, split.YTrain, params)
	if err != nil {
		return nil, err
	}

	// 5. evaluate
	testMatrix, err := c.engine.NewMatrix(split.XTest)
	if err != nil {
		return nil, errors.NewEngineError(op, "bind test matrix", err)
	}
	scope.Add(testMatrix)
	raw, err := booster.Predict(testMatrix)
	if err != nil {
		return nil, errors.NewEngineError(op, booster.LastError(), err)
	}
	want := split.YTest.Rows * split.YTest.Cols
	if len(raw) != want {
		return nil, errors.NewSizeMismatch(op, want, len(raw))
	}
	pred := dataset.New(raw, split.YTest.Rows, split.YTest.Cols)
	result := &TrainResult{
		RowsTrain:  split.XTrain.Rows,
		RowsTest:   split.XTest.Rows,
		Iterations: iterations,
		Split:      split,
	}
	if result.RMSE, err = metrics.RMSEColumns(pred, split.YTest); err != nil {
		return nil, err
	}
	if result.MAE, err = metrics.MAEColumns(pred, split.YTest); err != nil {
		return nil, err
	}
	if result.R2, err = metrics.R2Columns(pred, split.YTest); err != nil {
		return nil, err
	}
	logger.Info("Evaluation finished", log.PhaseKey, log.PhaseEvaluation, log.RMSEKey, result.RMSE)

	// 6. name
	if err := ensureDir(op, outputDir); err != nil {
		return nil, err
	}
	path := ModelPath(outputDir, modelName, c.clock(), *o.format)
	if o.pathBuf != nil {
		CopyPath(o.pathBuf, path)
	}

	// 7. persist
	data, err := booster.Save(*o.format)
	if err != nil {
		return nil, errors.NewEngineError(op, booster.LastError(), err)
	}
	if o.atomic {
		err = writeModelFileAtomic(op, path, data)
	} else {
		err = writeModelFile(op, path, data)
	}
	if err != nil {
		return nil, err
	}
	result.ModelPath = path
	result.Elapsed = c.clock().Sub(start)

	logger.Info("Model persisted",
		log.ModelPathKey, path,
		log.ModelFormatKey, o.format.String(),
		log.DurationMsKey, result.Elapsed.Milliseconds(),
	)
	return result, nil
}

// Train fits a model on all of x and y and writes it to path with the
// engine's own file writer. The format follows the path extension.
func (c *Context) Train(x, y dataset.Matrix, params []Param, path string) (err error) {
	const op = "Train"
	defer c.capture(op, &err)
	defer errors.Recover(&err, op)

	if err := c.checkReady(op); err != nil {
		return err
	}
	if err := x.Validate(op, "x"); err != nil {
		return err
	}
	if err := y.Validate(op, "y"); err != nil {
		return err
	}
	if x.Rows != y.Rows {
		return errors.NewInvalidParameter(op, "y", "x and y row counts differ")
	}
	if path == "" {
		return errors.NewInvalidParameter(op, "path", "empty")
	}
	if _, err := IterationCount(params); err != nil {
		return err
	}

	logger := c.logger.With(log.OperationKey, log.OperationTrain, log.ModelPathKey, path)
	var scope engine.Scope
	defer func() { _ = scope.Release() }()

	booster, err := c.fit(&scope, logger, x, y, params)
	if err != nil {
		return err
	}
	if err := ensureDir(op, filepath.Dir(path)); err != nil {
		return err
	}
	if err := booster.SaveFile(path, engine.FormatForPath(path)); err != nil {
		if errors.StatusOf(err) == errors.FileIOError {
			return err
		}
		return errors.NewEngineError(op, booster.LastError(), err)
	}
	logger.Info("Model persisted", log.SamplesKey, x.Rows)
	return nil
}

// fit binds x and y, creates and configures a booster, and runs every
// boosting round. Handles are registered in scope.
func (c *Context) fit(scope *engine.Scope, logger log.Logger, x, y dataset.Matrix, params []Param) (engine.Booster, error) {
	const op = "fit"
	train, err := c.engine.NewMatrix(x)
	if err != nil {
		return nil, errors.NewEngineError(op, "bind training matrix", err)
	}
	scope.Add(train)
	if err := train.SetLabel(y.Data, y.Cols); err != nil {
		return nil, errors.NewEngineError(op, "set labels", err)
	}

	booster, err := c.engine.NewBooster(train)
	if err != nil {
		return nil, errors.NewEngineError(op, "create booster", err)
	}
	scope.Add(booster)

	iterations, err := c.ApplyParams(booster, params)
	if err != nil {
		return nil, err
	}

	for i := 0; i < iterations; i++ {
		if err := booster.UpdateOneIter(i, train); err != nil {
			return nil, errors.NewEngineError(op,
				fmt.Sprintf("iteration %d: %s", i, booster.LastError()), err)
		}
		logger.Debug("Boosting iteration", log.IterationKey, i, log.PhaseKey, log.PhaseTraining)
	}
	return booster, nil
}

func (c *Context) trainOptions(opts []TrainOption) trainOptions {
	o := trainOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.format == nil {
		f := c.format
		o.format = &f
	}
	return o
}
