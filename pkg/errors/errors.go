// Package errors はパイプライン全体のエラーハンドリングと警告システムを提供します。
// すべての失敗は閉じたステータスコード体系（Status）に対応付けられ、
// cockroachdb/errors によるスタックトレース付きの構造化エラーとして返されます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("boostflow-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを差し替えます。
// nil を渡すと警告は破棄されます。
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ParameterWarning はエンジンがハイパーパラメータを拒否した場合の警告です。
// 学習は継続されます。
type ParameterWarning struct {
	Key    string
	Value  string
	Reason string
}

func (w *ParameterWarning) Error() string {
	return fmt.Sprintf("engine rejected parameter %s=%q: %s", w.Key, w.Value, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ParameterWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("param_key", w.Key).
		Str("param_value", w.Value).
		Str("reason", w.Reason).
		Str("type", "ParameterWarning")
}

// NewParameterWarning は新しいParameterWarningを作成します。
func NewParameterWarning(key, value, reason string) *ParameterWarning {
	return &ParameterWarning{Key: key, Value: value, Reason: reason}
}

// ===========================================================================
//
//	ステータスコード
//
// ===========================================================================

// Status は各操作が返す閉じた結果コードです。
type Status int

const (
	Success Status = iota
	InvalidParameter
	MemoryError
	FileIOError
	EngineError
	NotInitialized
	SizeMismatch
)

// String はステータスコードの表示名を返します。
func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case InvalidParameter:
		return "InvalidParameter"
	case MemoryError:
		return "MemoryError"
	case FileIOError:
		return "FileIOError"
	case EngineError:
		return "EngineError"
	case NotInitialized:
		return "NotInitialized"
	case SizeMismatch:
		return "SizeMismatch"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// StatusToString は人間が読める説明を返します。
func StatusToString(s Status) string {
	switch s {
	case Success:
		return "success"
	case InvalidParameter:
		return "invalid parameter"
	case MemoryError:
		return "memory allocation failed"
	case FileIOError:
		return "file I/O error"
	case EngineError:
		return "boosting engine error"
	case NotInitialized:
		return "library not initialized"
	case SizeMismatch:
		return "output size mismatch"
	default:
		return "unknown status"
	}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// StatusError はステータスコードと失敗した操作、問題のあるパラメータを保持するエラーです。
type StatusError struct {
	Status  Status
	Op      string
	Param   string
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("boostflow: %s: %s", e.Op, e.Message)
	if e.Param != "" {
		msg = fmt.Sprintf("boostflow: %s: %s: %s", e.Op, e.Param, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StatusError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("status", e.Status.String()).
		Str("operation", e.Op).
		Str("param", e.Param).
		Str("message", e.Message).
		Str("type", "StatusError")
}

func newStatusError(status Status, op, param, message string, err error) error {
	return errors.WithStackDepth(&StatusError{
		Status:  status,
		Op:      op,
		Param:   param,
		Message: message,
		Err:     err,
	}, 2)
}

// NewInvalidParameter は呼び出し側の入力が不正な場合のエラーを作成します。
func NewInvalidParameter(op, param, message string) error {
	return newStatusError(InvalidParameter, op, param, message, nil)
}

// NewMemoryError は内部バッファの確保に失敗した場合のエラーを作成します。
func NewMemoryError(op, param, message string) error {
	return newStatusError(MemoryError, op, param, message, nil)
}

// NewFileIOError はモデルファイルの読み書きに失敗した場合のエラーを作成します。
func NewFileIOError(op, path string, err error) error {
	return newStatusError(FileIOError, op, path, "file operation failed", err)
}

// NewEngineError はエンジンが失敗を返した場合のエラーを作成します。
// engineMsg にはエンジン自身の診断メッセージを渡します。
func NewEngineError(op, engineMsg string, err error) error {
	if engineMsg == "" {
		engineMsg = "engine call failed"
	}
	return newStatusError(EngineError, op, "", engineMsg, err)
}

// NewSizeMismatch はエンジン出力の要素数が期待値と異なる場合のエラーを作成します。
func NewSizeMismatch(op string, expected, got int) error {
	return newStatusError(SizeMismatch, op, "",
		fmt.Sprintf("engine returned %d elements, expected %d", got, expected), nil)
}

// NewNotInitialized はコンテキストが初期化されていない場合のエラーを作成します。
func NewNotInitialized(op string) error {
	return newStatusError(NotInitialized, op, "", "context is not initialized", nil)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("boostflow: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError は引数の値が不適切な場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("boostflow: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ValidationError は設定値の検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("boostflow: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// StatusOf はエラーからステータスコードを取り出します。
// nil は Success、入力検証系のエラーは InvalidParameter、
// 分類できないエラーは EngineError として扱います。
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	var de *DimensionError
	var ve *ValueError
	var vae *ValidationError
	if errors.As(err, &de) || errors.As(err, &ve) || errors.As(err, &vae) {
		return InvalidParameter
	}
	return EngineError
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ErrEmptyData は空のデータが渡された場合のエラーです。
var ErrEmptyData = New("empty data")
