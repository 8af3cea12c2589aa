package gbdt

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Supported objective names. The LightGBM spellings are accepted as aliases.
const (
	ObjectiveSquaredError  = "reg:squarederror"
	ObjectiveAbsoluteError = "reg:absoluteerror"
)

// Params holds the booster hyperparameters after alias resolution.
type Params struct {
	Objective       string
	LearningRate    float64
	MaxDepth        int
	MinChildWeight  float64
	MinDataInLeaf   int
	Gamma           float64
	Lambda          float64
	Alpha           float64
	Subsample       float64
	ColsampleByTree float64
	Seed            uint64
	NumThreads      int
	EvalMetric      string
	Verbosity       int
}

// DefaultParams returns XGBoost-like defaults.
func DefaultParams() Params {
	return Params{
		Objective:       ObjectiveSquaredError,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		MinDataInLeaf:   1,
		Gamma:           0,
		Lambda:          1,
		Alpha:           0,
		Subsample:       1,
		ColsampleByTree: 1,
		Seed:            0,
		NumThreads:      0,
		EvalMetric:      "rmse",
		Verbosity:       1,
	}
}

// ParameterMapper resolves the XGBoost and LightGBM spellings of a
// hyperparameter to one canonical name.
type ParameterMapper struct {
	aliases map[string]string
}

// NewParameterMapper creates a mapper with every supported alias.
func NewParameterMapper() *ParameterMapper {
	pm := &ParameterMapper{aliases: make(map[string]string)}

	pm.addMapping("objective", []string{"objective_type", "loss"})
	pm.addMapping("booster", []string{"boosting_type", "boosting"})
	pm.addMapping("eval_metric", []string{"metric"})
	pm.addMapping("learning_rate", []string{"eta", "shrinkage_rate"})
	pm.addMapping("max_depth", []string{})
	pm.addMapping("min_child_weight", []string{"min_sum_hessian_in_leaf", "min_sum_hessian", "min_hessian"})
	pm.addMapping("min_data_in_leaf", []string{"min_child_samples", "min_data"})
	pm.addMapping("gamma", []string{"min_split_loss", "min_gain_to_split", "min_split_gain"})
	pm.addMapping("reg_lambda", []string{"lambda", "lambda_l2", "l2_regularization"})
	pm.addMapping("reg_alpha", []string{"alpha", "lambda_l1", "l1_regularization"})
	pm.addMapping("subsample", []string{"bagging_fraction", "sub_row"})
	pm.addMapping("colsample_bytree", []string{"feature_fraction", "sub_feature"})
	pm.addMapping("seed", []string{"random_state", "random_seed"})
	pm.addMapping("nthread", []string{"n_thread", "num_threads", "num_thread", "n_jobs"})
	pm.addMapping("verbosity", []string{"verbose"})

	return pm
}

func (pm *ParameterMapper) addMapping(name string, aliases []string) {
	pm.aliases[name] = name
	for _, alias := range aliases {
		pm.aliases[alias] = name
	}
}

// Canonical returns the canonical name for key.
func (pm *ParameterMapper) Canonical(key string) (string, bool) {
	name, ok := pm.aliases[strings.TrimSpace(key)]
	return name, ok
}

var defaultMapper = NewParameterMapper()

// Set parses value for key and stores it in p. On error p is unchanged.
func (p *Params) Set(key, value string) error {
	const op = "SetParam"
	name, ok := defaultMapper.Canonical(key)
	if !ok {
		return errors.NewInvalidParameter(op, key, "unknown parameter")
	}
	value = strings.TrimSpace(value)
	next := *p

	var err error
	switch name {
	case "objective":
		next.Objective, err = parseObjective(value)
	case "booster":
		if v := strings.ToLower(value); v != "gbtree" && v != "gbdt" {
			err = errors.Newf("only gbtree is supported, got %q", value)
		}
	case "eval_metric":
		switch v := strings.ToLower(value); v {
		case "rmse", "mae":
			next.EvalMetric = v
		case "l2", "root_mean_squared_error":
			next.EvalMetric = "rmse"
		case "l1", "mean_absolute_error":
			next.EvalMetric = "mae"
		default:
			err = errors.Newf("unsupported metric %q", value)
		}
	case "learning_rate":
		next.LearningRate, err = parseFloatIn(value, 0, math.Inf(1), false, true)
	case "max_depth":
		next.MaxDepth, err = strconv.Atoi(value)
		if err == nil && next.MaxDepth <= 0 {
			// 0 や -1 は深さ無制限を意味する
			next.MaxDepth = 0
		}
	case "min_child_weight":
		next.MinChildWeight, err = parseFloatIn(value, 0, math.Inf(1), true, true)
	case "min_data_in_leaf":
		next.MinDataInLeaf, err = strconv.Atoi(value)
		if err == nil && next.MinDataInLeaf < 1 {
			err = errors.New("must be >= 1")
		}
	case "gamma":
		next.Gamma, err = parseFloatIn(value, 0, math.Inf(1), true, true)
	case "reg_lambda":
		next.Lambda, err = parseFloatIn(value, 0, math.Inf(1), true, true)
	case "reg_alpha":
		next.Alpha, err = parseFloatIn(value, 0, math.Inf(1), true, true)
	case "subsample":
		next.Subsample, err = parseFloatIn(value, 0, 1, false, true)
	case "colsample_bytree":
		next.ColsampleByTree, err = parseFloatIn(value, 0, 1, false, true)
	case "seed":
		var s int64
		s, err = strconv.ParseInt(value, 10, 64)
		next.Seed = uint64(s)
	case "nthread":
		next.NumThreads, err = strconv.Atoi(value)
		if err == nil && next.NumThreads < 0 {
			next.NumThreads = 0
		}
	case "verbosity":
		next.Verbosity, err = strconv.Atoi(value)
	}
	if err != nil {
		return errors.NewValidationError(key, err.Error(), value)
	}
	*p = next
	return nil
}

func parseObjective(value string) (string, error) {
	switch strings.ToLower(value) {
	case ObjectiveSquaredError, "reg:linear", "regression", "regression_l2", "l2", "mse":
		return ObjectiveSquaredError, nil
	case ObjectiveAbsoluteError, "regression_l1", "l1", "mae":
		return ObjectiveAbsoluteError, nil
	default:
		return "", errors.Newf("unsupported objective %q", value)
	}
}

// parseFloatIn parses a float and checks it lies within the given bounds.
func parseFloatIn(value string, lo, hi float64, loInclusive, hiInclusive bool) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) ||
		(loInclusive && v < lo) || (!loInclusive && v <= lo) ||
		(hiInclusive && v > hi) || (!hiInclusive && v >= hi) {
		return 0, errors.Newf("value %v out of range", v)
	}
	return v, nil
}
