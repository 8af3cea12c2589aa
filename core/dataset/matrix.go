// Package dataset defines the row-major float32 matrix exchanged between the
// pipeline stages and the boosting engine.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Matrix is a row-major matrix of float32 values with logical shape Rows × Cols.
// The pipeline never mutates a Matrix it receives as input.
type Matrix struct {
	Data []float32
	Rows int
	Cols int
}

// New wraps data as a rows × cols matrix without copying.
func New(data []float32, rows, cols int) Matrix {
	return Matrix{Data: data, Rows: rows, Cols: cols}
}

// Zeros allocates a rows × cols matrix. Oversized or negative shapes are
// reported as MemoryError or InvalidParameter instead of panicking.
func Zeros(op string, rows, cols int) (m Matrix, err error) {
	if rows <= 0 || cols <= 0 {
		return Matrix{}, errors.NewInvalidParameter(op, "shape", "rows and cols must be positive")
	}
	n, err := Elements(op, rows, cols)
	if err != nil {
		return Matrix{}, err
	}
	defer errors.RecoverAlloc(&err, op)
	return Matrix{Data: make([]float32, n), Rows: rows, Cols: cols}, nil
}

// Elements returns rows*cols, or a MemoryError when the product overflows int.
func Elements(op string, rows, cols int) (int, error) {
	if rows > 0 && cols > math.MaxInt/rows {
		return 0, errors.NewMemoryError(op, "shape", "rows*cols overflows")
	}
	return rows * cols, nil
}

// Validate checks shape consistency. name identifies the operand in the
// error ("x", "y", "data").
func (m Matrix) Validate(op, name string) error {
	if m.Data == nil {
		return errors.NewInvalidParameter(op, name, "matrix data is nil")
	}
	if m.Rows <= 0 {
		return errors.NewInvalidParameter(op, name, "rows must be positive")
	}
	if m.Cols <= 0 {
		return errors.NewInvalidParameter(op, name, "cols must be positive")
	}
	n, err := Elements(op, m.Rows, m.Cols)
	if err != nil {
		return err
	}
	if len(m.Data) != n {
		return errors.NewInvalidParameter(op, name, "data length does not match rows*cols")
	}
	return nil
}

// Row returns the i-th row as a sub-slice of Data.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns element (i, j).
func (m Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Len returns the number of elements.
func (m Matrix) Len() int {
	return len(m.Data)
}

// Dense returns a float64 gonum copy of the matrix.
func (m Matrix) Dense() *mat.Dense {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.Rows, m.Cols, data)
}

// Column returns column j as a float64 gonum vector.
func (m Matrix) Column(j int) *mat.VecDense {
	v := mat.NewVecDense(m.Rows, nil)
	for i := 0; i < m.Rows; i++ {
		v.SetVec(i, float64(m.Data[i*m.Cols+j]))
	}
	return v
}

// FromDense converts a gonum matrix to a float32 Matrix.
func FromDense(d mat.Matrix) Matrix {
	r, c := d.Dims()
	out := Matrix{Data: make([]float32, r*c), Rows: r, Cols: c}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Data[i*c+j] = float32(d.At(i, j))
		}
	}
	return out
}
