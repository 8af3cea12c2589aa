package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestRecover_WithPanic tests the Recover function when a panic occurs
func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		panic("test panic message")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	if StatusOf(err) != EngineError {
		t.Errorf("Expected EngineError, got %v", StatusOf(err))
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError in chain, got %T", err)
	}
	if panicErr.Operation != "TestOperation" {
		t.Errorf("Expected operation 'TestOperation', got '%s'", panicErr.Operation)
	}
	if panicErr.PanicValue != "test panic message" {
		t.Errorf("Expected panic value 'test panic message', got '%v'", panicErr.PanicValue)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
}

// TestRecover_WithoutPanic tests the Recover function when no panic occurs
func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

// TestRecover_WithExistingError tests Recover when function has existing error and panic occurs
func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, originalErr) {
		t.Error("Original error should remain in the chain")
	}
	if !strings.Contains(err.Error(), "panic in TestOperation") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}
}

func TestRecoverAlloc(t *testing.T) {
	alloc := func(n int) (buf []float32, err error) {
		defer RecoverAlloc(&err, "Alloc")
		buf = make([]float32, n)
		return buf, nil
	}

	_, err := alloc(-1)
	if StatusOf(err) != MemoryError {
		t.Fatalf("Expected MemoryError, got %v (%v)", StatusOf(err), err)
	}

	buf, err := alloc(4)
	if err != nil || len(buf) != 4 {
		t.Fatalf("unexpected result len=%d err=%v", len(buf), err)
	}

	other := func() (err error) {
		defer RecoverAlloc(&err, "Other")
		panic("not an allocation")
	}
	if StatusOf(other()) != EngineError {
		t.Error("non-allocation panic should map to EngineError")
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("division", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	if err == nil {
		t.Fatal("Expected error from nil map write")
	}

	sentinel := fmt.Errorf("plain failure")
	if err := SafeExecute("plain", func() error { return sentinel }); err != sentinel {
		t.Errorf("Expected sentinel error back, got %v", err)
	}
}
