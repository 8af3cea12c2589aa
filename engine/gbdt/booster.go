// Package gbdt is a pure Go, in-process gradient-boosted decision tree engine
// implementing the engine contract. It trains one regression tree per output
// column per boosting round and persists models as JSON or as a compact
// protobuf-wire binary.
package gbdt

import (
	"fmt"
	"os"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/core/parallel"
	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

// Engine is the gbdt implementation of engine.Engine.
type Engine struct {
	logger log.Logger
}

// New returns an Engine. It is safe for concurrent use.
func New() *Engine {
	return &Engine{logger: log.GetLoggerWithName("gbdt")}
}

// DMatrix is a bound feature matrix with optional labels.
type DMatrix struct {
	data   *mat.Dense
	labels []float64
	width  int
	closed bool
}

// NewMatrix implements engine.Engine.
func (e *Engine) NewMatrix(m dataset.Matrix) (engine.Matrix, error) {
	if err := m.Validate("NewMatrix", "data"); err != nil {
		return nil, err
	}
	return &DMatrix{data: m.Dense()}, nil
}

// SetLabel implements engine.Matrix.
func (d *DMatrix) SetLabel(labels []float32, width int) error {
	const op = "SetLabel"
	if d.closed {
		return errors.NewEngineError(op, "matrix is closed", nil)
	}
	rows, _ := d.data.Dims()
	if width <= 0 {
		return errors.NewInvalidParameter(op, "width", "must be positive")
	}
	if len(labels) != rows*width {
		return errors.NewDimensionError(op, rows*width, len(labels), 0)
	}
	d.labels = make([]float64, len(labels))
	for i, v := range labels {
		d.labels[i] = float64(v)
	}
	d.width = width
	return nil
}

// Rows implements engine.Matrix.
func (d *DMatrix) Rows() int {
	r, _ := d.data.Dims()
	return r
}

// Cols implements engine.Matrix.
func (d *DMatrix) Cols() int {
	_, c := d.data.Dims()
	return c
}

// Close implements engine.Matrix.
func (d *DMatrix) Close() error {
	d.closed = true
	return nil
}

// Booster is the gbdt implementation of engine.Booster.
type Booster struct {
	mu      sync.Mutex
	params  Params
	model   *Model
	bound   []*DMatrix
	lastErr string
	closed  bool
	logger  log.Logger

	// training predictions cached for the matrix last passed to UpdateOneIter
	cacheFor   *DMatrix
	cachePreds []float64
	cacheTrees int
}

// NewBooster implements engine.Engine.
func (e *Engine) NewBooster(bound ...engine.Matrix) (engine.Booster, error) {
	b := &Booster{params: DefaultParams(), logger: e.logger}
	for _, m := range bound {
		dm, ok := m.(*DMatrix)
		if !ok || dm == nil {
			return nil, errors.NewEngineError("NewBooster", "matrix was not created by this engine", nil)
		}
		b.bound = append(b.bound, dm)
	}
	return b, nil
}

// Params returns a copy of the current hyperparameters.
func (b *Booster) Params() Params {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

// Model returns the current model, or nil before training or loading.
func (b *Booster) Model() *Model {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.model
}

// fail records err as the last error and returns it.
func (b *Booster) fail(err error) error {
	b.lastErr = err.Error()
	return err
}

// LastError implements engine.Booster.
func (b *Booster) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// SetParam implements engine.Booster.
func (b *Booster) SetParam(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.fail(errors.NewEngineError("SetParam", "booster is closed", nil))
	}
	if err := b.params.Set(key, value); err != nil {
		return b.fail(err)
	}
	return nil
}

// UpdateOneIter implements engine.Booster: one boosting round adds one tree
// per output column.
func (b *Booster) UpdateOneIter(iter int, train engine.Matrix) (err error) {
	const op = "UpdateOneIter"
	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() {
		if err != nil {
			b.lastErr = err.Error()
		}
	}()
	defer errors.Recover(&err, op)

	if b.closed {
		return errors.NewEngineError(op, "booster is closed", nil)
	}
	dm, ok := train.(*DMatrix)
	if !ok || dm == nil {
		return errors.NewEngineError(op, "matrix was not created by this engine", nil)
	}
	if dm.closed {
		return errors.NewEngineError(op, "matrix is closed", nil)
	}
	if len(b.bound) > 0 && !b.isBound(dm) {
		return errors.NewEngineError(op, "matrix is not bound to this booster", nil)
	}
	if dm.labels == nil {
		return errors.NewEngineError(op, "training matrix has no labels", nil)
	}
	rows, cols := dm.data.Dims()
	if b.model == nil {
		b.model = &Model{
			Format:      modelFormatName,
			Version:     modelVersion,
			Objective:   b.params.Objective,
			NumFeatures: cols,
			NumOutputs:  dm.width,
			BaseScore:   calculateBaseScore(b.params.Objective, dm.labels, rows, dm.width),
		}
	}
	m := b.model
	if cols != m.NumFeatures || dm.width != m.NumOutputs {
		return errors.NewEngineError(op, fmt.Sprintf(
			"training matrix is %d features × %d outputs, model expects %d × %d",
			cols, dm.width, m.NumFeatures, m.NumOutputs), nil)
	}

	preds := b.trainPredictions(dm)
	raw := dm.data.RawMatrix().Data
	params := b.params
	trees := make([]Tree, m.NumOutputs)

	err = parallel.ForEach(m.NumOutputs, params.NumThreads, func(k int) error {
		src := rng.NewSplitMix64(params.Seed ^ treeSeed(iter, k))
		grad := make([]float64, rows)
		hess := make([]float64, rows)
		calculateGradients(m.Objective, preds, dm.labels, m.NumOutputs, k, grad, hess)
		sample := sampleRows(rows, params.Subsample, src)
		t := buildTree(raw, cols, sample, grad, hess, params, src)
		t.Output = k
		trees[k] = t
		return nil
	})
	if err != nil {
		return errors.NewEngineError(op, "tree construction failed", err)
	}

	m.Trees = append(m.Trees, trees...)
	sample := make([]float64, cols)
	for i := 0; i < rows; i++ {
		copy(sample, raw[i*cols:(i+1)*cols])
		for k := range trees {
			preds[i*m.NumOutputs+k] += trees[k].predict(sample)
		}
	}
	b.cacheTrees = len(m.Trees)

	if params.Verbosity > 1 {
		b.logger.Debug("Boosting round finished",
			log.IterationKey, iter,
			"trees", len(m.Trees),
		)
	}
	return nil
}

// treeSeed derives a per-tree stream so results do not depend on scheduling.
func treeSeed(iter, output int) uint64 {
	s := rng.NewSplitMix64(uint64(iter)<<32 | uint64(uint32(output)))
	return s.Uint64()
}

func (b *Booster) isBound(dm *DMatrix) bool {
	for _, m := range b.bound {
		if m == dm {
			return true
		}
	}
	return false
}

// trainPredictions returns the cached raw predictions for dm, recomputing
// them when dm changed or the model was replaced.
func (b *Booster) trainPredictions(dm *DMatrix) []float64 {
	if b.cacheFor == dm && b.cacheTrees == len(b.model.Trees) {
		return b.cachePreds
	}
	b.cacheFor = dm
	b.cachePreds = b.predictDense(dm.data)
	b.cacheTrees = len(b.model.Trees)
	return b.cachePreds
}

func (b *Booster) predictDense(data *mat.Dense) []float64 {
	rows, cols := data.Dims()
	width := b.model.NumOutputs
	out := make([]float64, rows*width)
	raw := data.RawMatrix()
	parallel.ParallelizeN(rows, b.params.NumThreads, func(start, end int) {
		sample := make([]float64, cols)
		for i := start; i < end; i++ {
			copy(sample, raw.Data[i*raw.Stride:i*raw.Stride+cols])
			b.model.predictRow(sample, out[i*width:(i+1)*width])
		}
	})
	return out
}

// Predict implements engine.Booster.
func (b *Booster) Predict(m engine.Matrix) (out []float32, err error) {
	const op = "Predict"
	b.mu.Lock()
	defer b.mu.Unlock()
	defer func() {
		if err != nil {
			b.lastErr = err.Error()
		}
	}()
	defer errors.Recover(&err, op)

	if b.closed {
		return nil, errors.NewEngineError(op, "booster is closed", nil)
	}
	if b.model == nil {
		return nil, errors.NewEngineError(op, "model is not trained or loaded", nil)
	}
	dm, ok := m.(*DMatrix)
	if !ok || dm == nil {
		return nil, errors.NewEngineError(op, "matrix was not created by this engine", nil)
	}
	if dm.closed {
		return nil, errors.NewEngineError(op, "matrix is closed", nil)
	}
	if dm.Cols() != b.model.NumFeatures {
		return nil, errors.NewEngineError(op, fmt.Sprintf(
			"matrix has %d features, model expects %d", dm.Cols(), b.model.NumFeatures), nil)
	}
	preds := b.predictDense(dm.data)
	out = make([]float32, len(preds))
	for i, v := range preds {
		out[i] = float32(v)
	}
	return out, nil
}

// Save implements engine.Booster.
func (b *Booster) Save(format engine.Format) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return nil, b.fail(errors.NewEngineError("Save", "model is not trained or loaded", nil))
	}
	data, err := b.model.Encode(format)
	if err != nil {
		return nil, b.fail(err)
	}
	return data, nil
}

// SaveFile implements engine.Booster.
func (b *Booster) SaveFile(path string, format engine.Format) error {
	data, err := b.Save(format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.fail(errors.NewFileIOError("SaveFile", path, err))
	}
	return nil
}

// Load implements engine.Booster.
func (b *Booster) Load(data []byte) error {
	m, err := DecodeModel(data)
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		return b.fail(errors.NewEngineError("Load", "corrupt or unsupported model", err))
	}
	b.model = m
	b.params.Objective = m.Objective
	b.cacheFor, b.cachePreds, b.cacheTrees = nil, nil, 0
	return nil
}

// LoadFile implements engine.Booster.
func (b *Booster) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.fail(errors.NewFileIOError("LoadFile", path, err))
	}
	return b.Load(data)
}

// Close implements engine.Booster.
func (b *Booster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.bound = nil
	b.cacheFor, b.cachePreds = nil, nil
	return nil
}

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Booster = (*Booster)(nil)
	_ engine.Matrix  = (*DMatrix)(nil)
)
