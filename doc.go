// Package boostflow trains, evaluates and applies gradient-boosted
// multi-output regression models.
//
// boostflow takes an in-memory feature matrix and a target matrix, shuffles
// and partitions the rows, fits one boosted tree ensemble per target column
// through a pluggable engine, reports per-column RMSE on the held-out rows,
// and persists the model under a timestamped file name. A separate predict
// step reloads the file and produces a prediction matrix.
//
// # Packages
//
//   - pipeline: the Context with TrainAndEvaluate, Train, Predict and the
//     diagnostic slot
//   - engine: the engine contract (matrices, boosters, model formats)
//   - engine/gbdt: the in-process gradient boosting engine
//   - preprocessing: Shuffle and TrainTestSplit
//   - metrics: per-column RMSE, MAE and R²
//   - config, datasets, report: YAML configs, synthetic and CSV data,
//     metrics logs and plots
//   - pkg/errors, pkg/log: status-coded errors and structured logging
//
// # Quick Start
//
//	ctx := pipeline.NewContext(gbdt.New(), pipeline.WithSeed(42))
//	defer ctx.Close()
//
//	params := []pipeline.Param{
//	    pipeline.P("objective", "reg:squarederror"),
//	    pipeline.P("max_depth", "6"),
//	    pipeline.P("eta", "0.3"),
//	    pipeline.P("n_estimators", "100"),
//	}
//	res, err := ctx.TrainAndEvaluate(x, y, 0.8, params, "models", "demo")
//	if err != nil {
//	    log.Fatal(errors.StatusOf(err), ctx.LastError())
//	}
//	fmt.Println(res.ModelPath, res.RMSE)
//
//	pred, err := ctx.Predict(xNew, y.Cols, res.ModelPath)
//
// # Error Handling
//
// Every operation returns an error carrying one of the status codes in
// pkg/errors (InvalidParameter, MemoryError, FileIOError, EngineError,
// NotInitialized, SizeMismatch). errors.StatusOf recovers the code.
// Engine handles are released on every return path.
package boostflow
