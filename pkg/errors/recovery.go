// This file contains panic recovery utilities that keep the pipeline from
// crashing when the engine or an allocation panics, converting the panic into
// a structured error instead.

package errors

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// PanicError represents an error that was created from a recovered panic.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error assigned to *err. It must be
// deferred directly:
//
//	func Step() (err error) {
//	    defer errors.Recover(&err, "Step")
//	    ...
//	}
//
// A recovered panic becomes an EngineError wrapping the PanicError. If the
// function already returned an error it is kept as the cause.
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		*err = panicToError(operation, r, *err)
	}
}

// RecoverAlloc is Recover for code that allocates caller-sized buffers.
// Runtime panics raised by make (negative or oversized length) are reported
// as MemoryError, anything else as in Recover.
func RecoverAlloc(err *error, operation string) {
	if r := recover(); r != nil {
		if re, ok := r.(runtime.Error); ok && isAllocPanic(re) {
			*err = newStatusError(MemoryError, operation, "", "buffer allocation failed", NewPanicError(operation, r))
			return
		}
		*err = panicToError(operation, r, *err)
	}
}

// SafeExecute executes fn and recovers from any panic, converting it to an error.
//
//	err := errors.SafeExecute("booster.update", func() error {
//	    return booster.UpdateOneIter(i, dtrain)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}

func panicToError(operation string, r interface{}, prev error) error {
	cause := error(NewPanicError(operation, r))
	if prev != nil {
		cause = Wrapf(prev, "panic in %s: %v", operation, r)
	}
	return newStatusError(EngineError, operation, "", "recovered from panic", cause)
}

func isAllocPanic(re runtime.Error) bool {
	msg := re.Error()
	return strings.Contains(msg, "makeslice") || strings.Contains(msg, "out of memory")
}
