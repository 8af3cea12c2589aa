package pipeline

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

// IterationCountKey is the key holding the number of boosting rounds. It is
// consumed by the pipeline and never forwarded to the engine.
const IterationCountKey = "n_estimators"

// Param is one (key, value) hyperparameter. A configuration is an ordered
// []Param; order matters and duplicates are allowed.
type Param struct {
	Key   string
	Value string
}

// P is shorthand for building a Param list.
//
//	params := []pipeline.Param{pipeline.P("n_estimators", "100"), pipeline.P("eta", "0.1")}
func P(key, value string) Param {
	return Param{Key: key, Value: value}
}

// IterationCount extracts the boosting round count without touching an
// engine. The last occurrence of IterationCountKey wins.
func IterationCount(params []Param) (int, error) {
	const op = "IterationCount"
	n, found, err := scanIterations(params)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, errors.NewInvalidParameter(op, IterationCountKey, "missing")
	}
	if n < 1 {
		return 0, errors.NewInvalidParameter(op, IterationCountKey, "must be >= 1")
	}
	return n, nil
}

func scanIterations(params []Param) (n int, found bool, err error) {
	for _, p := range params {
		if p.Key != IterationCountKey || p.Value == "" {
			continue
		}
		v, perr := strconv.Atoi(strings.TrimSpace(p.Value))
		if perr != nil {
			return 0, false, errors.NewInvalidParameter("IterationCount", IterationCountKey,
				"not an integer: "+strconv.Quote(p.Value))
		}
		n, found = v, true
	}
	return n, found, nil
}

// ApplyParams forwards every parameter except IterationCountKey to booster,
// in order, and returns the iteration count. Entries with an empty key or
// value are skipped. A parameter the engine rejects is logged and raised as
// a ParameterWarning; translation continues.
func (c *Context) ApplyParams(booster engine.Booster, params []Param) (int, error) {
	iterations, err := IterationCount(params)
	if err != nil {
		return 0, err
	}
	for _, p := range params {
		if p.Key == "" || p.Value == "" || p.Key == IterationCountKey {
			continue
		}
		if err := booster.SetParam(p.Key, p.Value); err != nil {
			reason := booster.LastError()
			if reason == "" {
				reason = err.Error()
			}
			c.logger.Warn("Engine rejected parameter",
				log.ParamKeyKey, p.Key,
				log.ParamValueKey, p.Value,
				log.EngineMessageKey, reason,
			)
			errors.Warn(errors.NewParameterWarning(p.Key, p.Value, reason))
			continue
		}
		c.logger.Debug("Parameter applied", log.ParamKeyKey, p.Key, log.ParamValueKey, p.Value)
	}
	return iterations, nil
}
