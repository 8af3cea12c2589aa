// Standard attribute keys for pipeline log records. Using the same keys in
// every package keeps training runs greppable and lets log processors group
// records by operation.

package log

// Model and Operation Context
const (
	// ModelNameKey is the caller supplied model name (file name stem).
	ModelNameKey = "model.name"

	// ModelPathKey is the resolved model file path.
	ModelPathKey = "model.path"

	// ModelFormatKey is the serialization format ("json", "binary").
	ModelFormatKey = "model.format"

	// OperationKey specifies the pipeline operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// TargetsKey is the number of target columns.
	TargetsKey = "data.targets"

	// TrainRowsKey and TestRowsKey describe a partition.
	TrainRowsKey = "data.train_rows"
	TestRowsKey  = "data.test_rows"
)

// Performance and Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// RMSEKey records the per-column RMSE vector.
	RMSEKey = "metrics.rmse"

	// MAEKey records the per-column MAE vector.
	MAEKey = "metrics.mae"

	// IterationKey records the current boosting round.
	IterationKey = "training.iteration"

	// IterationsKey records the total number of boosting rounds.
	IterationsKey = "training.iterations"
)

// Hyperparameters
const (
	// ParamKeyKey and ParamValueKey describe a single hyperparameter.
	ParamKeyKey   = "hyperparams.key"
	ParamValueKey = "hyperparams.value"

	// RandomSeedKey records the shuffle seed.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorCodeKey carries the status code name.
	ErrorCodeKey = "error.code"

	// EngineMessageKey carries the engine's own last-error text.
	EngineMessageKey = "error.engine_message"
)

// Standard attribute values.
const (
	OperationShuffle          = "shuffle"
	OperationSplit            = "split"
	OperationTrain            = "train"
	OperationTrainAndEvaluate = "train_and_evaluate"
	OperationPredict          = "predict"
	OperationPersist          = "persist"

	PhaseTraining   = "training"
	PhaseEvaluation = "evaluation"
	PhaseInference  = "inference"
)
