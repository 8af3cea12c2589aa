package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestStatusErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantMsg    string
	}{
		{
			name:       "invalid parameter",
			err:        NewInvalidParameter("Split", "rows_train", "must be in (0, rows)"),
			wantStatus: InvalidParameter,
			wantMsg:    "boostflow: Split: rows_train: must be in (0, rows)",
		},
		{
			name:       "memory error",
			err:        NewMemoryError("Split", "indices", "buffer too large"),
			wantStatus: MemoryError,
			wantMsg:    "boostflow: Split: indices: buffer too large",
		},
		{
			name:       "file io error",
			err:        NewFileIOError("Persist", "/tmp/model.json", fmt.Errorf("disk full")),
			wantStatus: FileIOError,
			wantMsg:    "boostflow: Persist: /tmp/model.json: file operation failed: disk full",
		},
		{
			name:       "engine error",
			err:        NewEngineError("UpdateOneIter", "iteration 3: bad matrix", nil),
			wantStatus: EngineError,
			wantMsg:    "boostflow: UpdateOneIter: iteration 3: bad matrix",
		},
		{
			name:       "size mismatch",
			err:        NewSizeMismatch("Predict", 20, 10),
			wantStatus: SizeMismatch,
			wantMsg:    "boostflow: Predict: engine returned 10 elements, expected 20",
		},
		{
			name:       "not initialized",
			err:        NewNotInitialized("Train"),
			wantStatus: NotInitialized,
			wantMsg:    "boostflow: Train: context is not initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.wantMsg)
			}
			if got := StatusOf(tt.err); got != tt.wantStatus {
				t.Errorf("StatusOf() = %v, want %v", got, tt.wantStatus)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", tt.err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, Success},
		{"dimension", NewDimensionError("RMSE", 3, 2, 1), InvalidParameter},
		{"value", NewValueError("RMSE", "empty matrix"), InvalidParameter},
		{"validation", NewValidationError("train_ratio", "must be in (0, 1)", 1.5), InvalidParameter},
		{"wrapped status", Wrap(NewSizeMismatch("Predict", 4, 2), "predict"), SizeMismatch},
		{"plain", fmt.Errorf("boom"), EngineError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusStrings(t *testing.T) {
	all := []Status{Success, InvalidParameter, MemoryError, FileIOError, EngineError, NotInitialized, SizeMismatch}
	seen := make(map[string]bool)
	for _, s := range all {
		desc := StatusToString(s)
		if desc == "unknown status" {
			t.Errorf("StatusToString(%v) returned unknown", s)
		}
		if seen[desc] {
			t.Errorf("duplicate description %q", desc)
		}
		seen[desc] = true
	}

	if got := Status(42).String(); got != "Unknown(42)" {
		t.Errorf("String() = %q", got)
	}
	if got := StatusToString(Status(-1)); got != "unknown status" {
		t.Errorf("StatusToString() = %q", got)
	}
	if SizeMismatch.String() != "SizeMismatch" {
		t.Errorf("String() = %q", SizeMismatch.String())
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("RMSE", 3, 2, 1)

	want := "boostflow: RMSE: dimension mismatch on axis 1 (columns). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestParameterWarning(t *testing.T) {
	w := NewParameterWarning("max_depth", "abc", "not an integer")
	want := `engine rejected parameter max_depth="abc": not an integer`
	if w.Error() != want {
		t.Errorf("Error() = %v, want %v", w.Error(), want)
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(nil)
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewParameterWarning("eta", "x", "bad float"))
	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}

	// zerolog関数が設定されている場合はそちらが優先される
	var zl int
	SetZerologWarnFunc(func(error) { zl++ })
	defer SetZerologWarnFunc(nil)
	Warn(NewParameterWarning("eta", "y", "bad float"))
	if zl != 1 || len(got) != 1 {
		t.Errorf("zerolog=%d handler=%d, want 1 and 1", zl, len(got))
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Predict: expected 10, got 5") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}
