package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

func TestModelPath(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)
	assert.Equal(t, filepath.Join("models", "xgb_20231231_235958.json"), ModelPath("models", "xgb", ts, engine.FormatJSON))
	assert.Equal(t, filepath.Join("out", "m_20231231_235958.bin"), ModelPath("out", "m", ts, engine.FormatBinary))
}

func TestCopyPath(t *testing.T) {
	tests := []struct {
		name    string
		bufLen  int
		path    string
		want    string
		wantLen int
	}{
		{"fits", 16, "a/b.json", "a/b.json", 8},
		{"exact", 9, "a/b.json", "a/b.json", 8},
		{"truncated", 5, "a/b.json", "a/b.", 4},
		{"one byte", 1, "a/b.json", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.bufLen)
			for i := range buf {
				buf[i] = 'x'
			}
			n := CopyPath(buf, tt.path)
			assert.Equal(t, tt.wantLen, n)
			assert.Equal(t, tt.want, string(buf[:n]))
			assert.Equal(t, byte(0), buf[n])
		})
	}
	assert.Equal(t, 0, CopyPath(nil, "abc"))
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriteAllShortWrite(t *testing.T) {
	err := writeAll("persist", "m.json", shortWriter{}, []byte("0123456789"))
	assert.Equal(t, errors.FileIOError, errors.StatusOf(err))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestWriteModelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.json")

	require.NoError(t, writeModelFile("persist", path, []byte("first")))
	require.NoError(t, writeModelFileAtomic("persist", path, []byte("second")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), e.Name())
	}

	err = writeModelFile("persist", filepath.Join(dir, "missing", "m.json"), []byte("x"))
	assert.Equal(t, errors.FileIOError, errors.StatusOf(err))
	err = writeModelFileAtomic("persist", filepath.Join(dir, "missing", "m.json"), []byte("x"))
	assert.Equal(t, errors.FileIOError, errors.StatusOf(err))
}

func TestTruncateUTF8(t *testing.T) {
	s := strings.Repeat("é", 600) // 1200 bytes
	got := truncateUTF8(s, MaxDiagnosticLen)
	assert.LessOrEqual(t, len(got), MaxDiagnosticLen)
	assert.Equal(t, 1024, len(got))
	assert.True(t, strings.HasSuffix(got, "é"))

	got = truncateUTF8("aé", 2)
	assert.Equal(t, "a", got)
	assert.Equal(t, "short", truncateUTF8("short", 10))
}

func TestLastErrorIsBounded(t *testing.T) {
	ctx := NewContext(newFakeEngine())
	ctx.setLastError(strings.Repeat("x", 5000))
	assert.Len(t, ctx.LastError(), MaxDiagnosticLen)
}
