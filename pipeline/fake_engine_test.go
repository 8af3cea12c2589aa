package pipeline

import (
	"fmt"
	"os"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/engine"
)

// fakeEngine records every call so tests can assert on engine interaction.
type fakeEngine struct {
	calls    int
	matrices []*fakeMatrix
	boosters []*fakeBooster

	failAt     int // iteration index that fails, -1 for none
	extraOut   int // values added to every Predict result
	rejectKeys map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failAt: -1, rejectKeys: map[string]bool{}}
}

func (e *fakeEngine) NewMatrix(m dataset.Matrix) (engine.Matrix, error) {
	e.calls++
	fm := &fakeMatrix{rows: m.Rows, cols: m.Cols}
	e.matrices = append(e.matrices, fm)
	return fm, nil
}

func (e *fakeEngine) NewBooster(bound ...engine.Matrix) (engine.Booster, error) {
	e.calls++
	b := &fakeBooster{eng: e}
	if len(bound) > 0 {
		b.width = bound[0].(*fakeMatrix).width
	}
	e.boosters = append(e.boosters, b)
	return b, nil
}

func (e *fakeEngine) allClosed() bool {
	for _, m := range e.matrices {
		if !m.closed {
			return false
		}
	}
	for _, b := range e.boosters {
		if !b.closed {
			return false
		}
	}
	return true
}

type fakeMatrix struct {
	rows, cols, width int
	closed            bool
}

func (m *fakeMatrix) SetLabel(labels []float32, width int) error {
	m.width = width
	return nil
}
func (m *fakeMatrix) Rows() int    { return m.rows }
func (m *fakeMatrix) Cols() int    { return m.cols }
func (m *fakeMatrix) Close() error { m.closed = true; return nil }

type fakeBooster struct {
	eng     *fakeEngine
	params  []Param
	iters   int
	width   int
	lastErr string
	closed  bool
}

func (b *fakeBooster) SetParam(key, value string) error {
	if b.eng.rejectKeys[key] {
		b.lastErr = "unknown parameter " + key
		return fmt.Errorf("%s", b.lastErr)
	}
	b.params = append(b.params, Param{key, value})
	return nil
}

func (b *fakeBooster) UpdateOneIter(iter int, train engine.Matrix) error {
	if iter == b.eng.failAt {
		b.lastErr = "simulated failure"
		return fmt.Errorf("boom")
	}
	b.iters++
	return nil
}

func (b *fakeBooster) Predict(m engine.Matrix) ([]float32, error) {
	return make([]float32, m.Rows()*b.width+b.eng.extraOut), nil
}

func (b *fakeBooster) Save(engine.Format) ([]byte, error) {
	return []byte(fmt.Sprintf("fake width=%d", b.width)), nil
}

func (b *fakeBooster) SaveFile(path string, f engine.Format) error {
	data, _ := b.Save(f)
	return os.WriteFile(path, data, 0o644)
}

func (b *fakeBooster) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return b.Load(data)
}

func (b *fakeBooster) Load(data []byte) error {
	_, err := fmt.Sscanf(string(data), "fake width=%d", &b.width)
	return err
}

func (b *fakeBooster) LastError() string { return b.lastErr }
func (b *fakeBooster) Close() error      { b.closed = true; return nil }
