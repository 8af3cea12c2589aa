// Package report writes run artifacts that sit next to a persisted model:
// a CSV log of evaluation metrics and a predicted-vs-actual plot.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
	"github.com/YuminosukeSato/boostflow/pkg/log"
)

// Record is one training run as logged to the metrics file.
type Record struct {
	SampleSize int
	DataSize   int
	Elapsed    time.Duration
	RMSE       []float64
	ModelPath  string
}

// MetricsLog appends Records to a CSV file. The header is written when the
// file is first created; later runs only append.
type MetricsLog struct {
	path    string
	targets int
	logger  log.Logger
}

// NewMetricsLog returns a log for runs with the given number of target
// columns. Nothing is written until Append.
func NewMetricsLog(path string, targets int) *MetricsLog {
	return &MetricsLog{
		path:    path,
		targets: targets,
		logger:  log.GetLoggerWithName("report"),
	}
}

// Header returns the column names for targets RMSE columns.
func Header(targets int) []string {
	h := []string{"Sample Size", "Data Size", "Elapsed (min)"}
	for i := 1; i <= targets; i++ {
		h = append(h, "RMSE"+strconv.Itoa(i))
	}
	return append(h, "Model Path")
}

// Append writes rec as one row, creating the file and header if needed.
func (l *MetricsLog) Append(rec Record) (err error) {
	const op = "MetricsLog.Append"
	if len(rec.RMSE) != l.targets {
		return errors.NewDimensionError(op, l.targets, len(rec.RMSE), 1)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NewFileIOError(op, l.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewFileIOError(op, l.path, cerr)
		}
	}()
	info, err := f.Stat()
	if err != nil {
		return errors.NewFileIOError(op, l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header(l.targets)); err != nil {
			return errors.NewFileIOError(op, l.path, err)
		}
	}
	row := []string{
		strconv.Itoa(rec.SampleSize),
		strconv.Itoa(rec.DataSize),
		strconv.FormatFloat(rec.Elapsed.Minutes(), 'f', 2, 64),
	}
	for _, v := range rec.RMSE {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	row = append(row, rec.ModelPath)
	if err := w.Write(row); err != nil {
		return errors.NewFileIOError(op, l.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewFileIOError(op, l.path, err)
	}
	l.logger.Debug("Metrics appended", log.ModelPathKey, rec.ModelPath, log.RMSEKey, rec.RMSE)
	return nil
}

// FormatRMSE renders per-column RMSE as "[0.123456, 0.234567]".
func FormatRMSE(rmse []float64) string {
	parts := make([]string, len(rmse))
	for i, v := range rmse {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Summary is the multi-line console summary of one run.
func Summary(rec Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "├─ Data size: %d rows\n", rec.DataSize)
	fmt.Fprintf(&b, "├─ Elapsed: %.2f min\n", rec.Elapsed.Minutes())
	fmt.Fprintf(&b, "├─ RMSE: %s\n", FormatRMSE(rec.RMSE))
	fmt.Fprintf(&b, "└─ Model: %s\n", rec.ModelPath)
	return b.String()
}
