package datasets

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// ReadCSV loads a numeric CSV file with a header row. The last targets
// columns become y, the rest x. Every row must have the header's width.
func ReadCSV(path string, targets int) (x, y dataset.Matrix, header []string, err error) {
	const op = "datasets.ReadCSV"
	f, err := os.Open(path)
	if err != nil {
		return x, y, nil, errors.NewFileIOError(op, path, err)
	}
	defer f.Close()
	return readCSV(op, bufio.NewReader(f), targets)
}

func readCSV(op string, r io.Reader, targets int) (x, y dataset.Matrix, header []string, err error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	rec, err := reader.Read()
	if err != nil {
		return x, y, nil, errors.NewInvalidParameter(op, "header", "cannot read header: "+err.Error())
	}
	header = append([]string(nil), rec...)
	width := len(header)
	if targets <= 0 || targets >= width {
		return x, y, nil, errors.NewInvalidParameter(op, "targets", "must leave at least one feature column")
	}
	features := width - targets

	var xs, ys []float32
	rows := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ErrFieldCount etc. carry the line number
			return x, y, nil, errors.NewInvalidParameter(op, "row", err.Error())
		}
		for j, s := range rec {
			v, perr := strconv.ParseFloat(s, 32)
			if perr != nil {
				return x, y, nil, errors.NewInvalidParameter(op, header[j],
					"row "+strconv.Itoa(rows+1)+": "+perr.Error())
			}
			if j < features {
				xs = append(xs, float32(v))
			} else {
				ys = append(ys, float32(v))
			}
		}
		rows++
	}
	if rows == 0 {
		return x, y, nil, errors.NewInvalidParameter(op, "rows", "no data rows")
	}
	return dataset.New(xs, rows, features), dataset.New(ys, rows, targets), header, nil
}

// WriteCSV writes x and y side by side under header. A nil header is
// replaced by x1..xN,y1..yM.
func WriteCSV(path string, header []string, x, y dataset.Matrix) (err error) {
	const op = "datasets.WriteCSV"
	if x.Rows != y.Rows {
		return errors.NewDimensionError(op, x.Rows, y.Rows, 0)
	}
	if header == nil {
		header = DefaultHeader(x.Cols, y.Cols)
	}
	if len(header) != x.Cols+y.Cols {
		return errors.NewDimensionError(op, x.Cols+y.Cols, len(header), 1)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewFileIOError(op, path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	row := make([]string, len(header))
	for i := 0; i < x.Rows; i++ {
		n := 0
		for _, v := range x.Row(i) {
			row[n] = strconv.FormatFloat(float64(v), 'g', -1, 32)
			n++
		}
		for _, v := range y.Row(i) {
			row[n] = strconv.FormatFloat(float64(v), 'g', -1, 32)
			n++
		}
		if err := w.Write(row); err != nil {
			return errors.NewFileIOError(op, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	return nil
}

// DefaultHeader names features x1..xN and targets y1..yM.
func DefaultHeader(features, targets int) []string {
	h := make([]string, 0, features+targets)
	for j := 1; j <= features; j++ {
		h = append(h, "x"+strconv.Itoa(j))
	}
	for k := 1; k <= targets; k++ {
		h = append(h, "y"+strconv.Itoa(k))
	}
	return h
}
