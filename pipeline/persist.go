package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// TimestampLayout is the timestamp embedded in model file names.
const TimestampLayout = "20060102_150405"

// ModelPath builds {dir}/{name}_{YYYYMMDD_HHMMSS}.{ext}.
func ModelPath(dir, name string, ts time.Time, format engine.Format) string {
	return filepath.Join(dir, name+"_"+ts.Format(TimestampLayout)+"."+format.Extension())
}

// CopyPath copies path into buf as a NUL-terminated byte string, truncating
// to len(buf)-1 bytes. It returns the number of path bytes copied.
func CopyPath(buf []byte, path string) int {
	if len(buf) == 0 {
		return 0
	}
	n := copy(buf[:len(buf)-1], path)
	buf[n] = 0
	return n
}

// ensureDir creates dir (and parents) if it does not exist.
func ensureDir(op, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewFileIOError(op, dir, err)
	}
	return nil
}

// writeAll writes data to w and reports a short write as FileIOError.
func writeAll(op, path string, w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	return nil
}

// writeModelFile writes data to path directly. A crash mid-write can leave a
// partial file.
func writeModelFile(op, path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	if err := writeAll(op, path, f, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	return nil
}

// writeModelFileAtomic writes data to a temporary file in the same directory
// and renames it over path, so readers see either the old or the new model.
func writeModelFileAtomic(op, path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err := writeAll(op, path, f, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.NewFileIOError(op, path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.NewFileIOError(op, path, err)
	}
	return nil
}
