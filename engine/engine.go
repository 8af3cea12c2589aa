// Package engine defines the narrow capability contract the pipeline uses to
// drive a gradient-boosting engine: bind matrices, configure and update a
// booster, run inference, and persist or load a model.
//
// The pipeline never depends on a concrete engine. Implementations live in
// sub-packages (see engine/gbdt).
package engine

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Format is a model serialization format.
type Format int

const (
	// FormatJSON is a human-readable JSON document.
	FormatJSON Format = iota
	// FormatBinary is a compact protobuf-wire encoding.
	FormatBinary
)

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatBinary:
		return "bin"
	default:
		return "json"
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseFormat parses "json", "bin" or "binary" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "bin", "binary":
		return FormatBinary, nil
	default:
		return FormatJSON, errors.NewInvalidParameter("ParseFormat", "format", "unknown model format "+s)
	}
}

// FormatForPath infers the format from a file extension; anything other
// than ".bin" is JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return FormatBinary
	}
	return FormatJSON
}

// Engine creates matrix and booster handles.
type Engine interface {
	// NewMatrix binds a feature matrix. The engine copies the data.
	NewMatrix(m dataset.Matrix) (Matrix, error)
	// NewBooster creates a booster bound to zero or more matrices. A booster
	// created with no matrices is used for loading a persisted model.
	NewBooster(bound ...Matrix) (Booster, error)
}

// Matrix is an engine-owned feature matrix, optionally carrying labels.
type Matrix interface {
	// SetLabel attaches row-major labels of the given width (one value per
	// output per row).
	SetLabel(labels []float32, width int) error
	Rows() int
	Cols() int
	Close() error
}

// Booster is a trainable, persistable model handle.
type Booster interface {
	// SetParam sets a single hyperparameter. A rejected parameter returns an
	// error and leaves the previous value in force.
	SetParam(key, value string) error
	// UpdateOneIter runs one boosting round on train.
	UpdateOneIter(iter int, train Matrix) error
	// Predict returns Rows()*outputs values, row-major.
	Predict(m Matrix) ([]float32, error)
	// Save serializes the model.
	Save(format Format) ([]byte, error)
	// SaveFile writes the model to path.
	SaveFile(path string, format Format) error
	// LoadFile replaces the model with one read from path.
	LoadFile(path string) error
	// Load replaces the model with one decoded from data.
	Load(data []byte) error
	// LastError returns the engine's most recent diagnostic message.
	LastError() string
	Close() error
}

// CloseAll closes every non-nil closer in reverse order and returns the first
// error.
func CloseAll(closers ...io.Closer) error {
	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Scope collects handles acquired during one operation so that a single
// deferred Release frees all of them on every exit path.
//
//	var scope engine.Scope
//	defer scope.Release()
//	m, err := eng.NewMatrix(x)
//	if err != nil { return err }
//	scope.Add(m)
type Scope struct {
	closers []io.Closer
}

// Add registers c for release. nil is ignored.
func (s *Scope) Add(c io.Closer) {
	if c == nil {
		return
	}
	s.closers = append(s.closers, c)
}

// Release closes every registered handle, newest first, exactly once.
func (s *Scope) Release() error {
	err := CloseAll(s.closers...)
	s.closers = nil
	return err
}

// Len returns the number of handles still held.
func (s *Scope) Len() int {
	return len(s.closers)
}
