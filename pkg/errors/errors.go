// Package errors は解析パイプラインのエラー型と警告チャネルを定義します。
//
// エラーは cockroachdb/errors によるスタックトレース付きで生成され、
// どのステージ（読み込み・変換・推定）で何が起きたかを構造化フィールドで
// 保持します。警告はエラーと違って実行を止めず、Warn を経由して登録済みの
// シンク（通常は pkg/log の zerolog ブリッジ）へ流れます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// 警告チャネル。

var (
	warnMu sync.Mutex

	// warnHandler は zerolog ブリッジ未登録時のフォールバック。
	warnHandler = func(w error) {
		log.Printf("cyclestat-warning: %v\n", w)
	}

	// warnZerolog は pkg/log が起動時に登録する。直接 import すると
	// 循環するため関数値で受け取る。
	warnZerolog func(error)
)

// SetWarningHandler はフォールバックの警告ハンドラを差し替えます。
// nil を渡すとフォールバック経路は無効になります。
func SetWarningHandler(handler func(w error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnHandler = handler
}

// SetZerologWarnFunc は構造化警告シンクを登録します。登録済みの場合、
// Warn はフォールバックより先にこちらへ配送します。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnZerolog = warnFunc
}

// Warn は警告を配送します。実行は停止しません。
func Warn(w error) {
	warnMu.Lock()
	defer warnMu.Unlock()

	switch {
	case warnZerolog != nil:
		warnZerolog(w)
	case warnHandler != nil:
		warnHandler(w)
	}
}

// ConvergenceWarning は反復推定が許容誤差に達しないまま打ち切られたことを
// 示します。lasso の座標降下がスイープ上限に達した場合に発生します。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

// NewConvergenceWarning は ConvergenceWarning を作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

func (w *ConvergenceWarning) Error() string {
	s := fmt.Sprintf("%s failed to converge after %d iterations", w.Algorithm, w.Iterations)
	if w.Message != "" {
		s += ": " + w.Message
	}
	return s
}

// MarshalZerologObject は警告を構造化フィールドとして zerolog イベントに
// 展開します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// パイプラインのエラー型。

// LoadError は入力 CSV の読み込み失敗を表します。ファイルが開けない、
// ヘッダがスキーマと一致しない、必須列が欠損している、といったケースです。
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

// NewLoadError はスタックトレース付きの LoadError を返します。
func NewLoadError(path, reason string, err error) error {
	return errors.WithStack(&LoadError{Path: path, Reason: reason, Err: err})
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("cyclestat: load %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// DomainError は数学的に定義されない入力を表します。log10 に非正の
// トリップ数が渡された場合などに、観測所 ID と値を保持します。
type DomainError struct {
	Op      string
	Station string
	Value   float64
}

// NewDomainError はスタックトレース付きの DomainError を返します。
func NewDomainError(op, station string, value float64) error {
	return errors.WithStack(&DomainError{Op: op, Station: station, Value: value})
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("cyclestat: %s: value %g out of domain", e.Op, e.Value)
	if e.Station != "" {
		msg += " for station " + e.Station
	}
	return msg
}

// SingularityError は計画行列がランク落ちしており正規方程式が解けない
// ことを表します。
type SingularityError struct {
	Op     string
	Detail string
}

// NewSingularityError はスタックトレース付きの SingularityError を返します。
func NewSingularityError(op, detail string) error {
	return errors.WithStack(&SingularityError{Op: op, Detail: detail})
}

func (e *SingularityError) Error() string {
	msg := fmt.Sprintf("cyclestat: %s: design matrix is singular", e.Op)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// NotFittedError は Fit 前に Predict や Transform を呼んだことを表します。
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError はスタックトレース付きの NotFittedError を返します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("cyclestat: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// DimensionError は行列・ベクトルの次元不一致を表します。Axis 0 は行
// （観測）、Axis 1 は列（説明変数）の不一致です。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError はスタックトレース付きの DimensionError を返します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("cyclestat: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisLabel(e.Axis), e.Expected, e.Got)
}

func axisLabel(axis int) string {
	if axis == 0 {
		return "rows"
	}
	return "predictors"
}

// ValidationError は設定値の検証失敗を表します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError はスタックトレース付きの ValidationError を返します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cyclestat: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// ValueError は引数の値そのものが不正なことを表します。NaN や Inf の
// 混入検査（CheckFinite）もこの型を返します。
type ValueError struct {
	Op      string
	Message string
}

// NewValueError はスタックトレース付きの ValueError を返します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("cyclestat: %s: %s", e.Op, e.Message)
}

// ModelError は推定処理の一般的な失敗を、原因エラーを包んで表します。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError はスタックトレース付きの ModelError を返します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

func (e *ModelError) Error() string {
	msg := fmt.Sprintf("cyclestat: %s: %s", e.Op, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ModelError) Unwrap() error { return e.Err }

// cockroachdb/errors への委譲。呼び出し側がライブラリを直接 import
// せずに済むよう、よく使う関数をここから再公開します。

// Is は err の連鎖に target が含まれるか判定します。
func Is(err, target error) bool { return errors.Is(err, target) }

// As は err の連鎖から target の型を取り出します。
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap は err に文脈メッセージを重ねます。
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf は err にフォーマット済みの文脈を重ねます。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New はスタックトレース付きの新しいエラーを作成します。
func New(message string) error { return errors.New(message) }

// Newf はフォーマットしてスタックトレース付きのエラーを作成します。
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// WithStack は err に現在のスタックトレースを付与します。
func WithStack(err error) error { return errors.WithStack(err) }

// ErrEmptyData は行数または列数が 0 のデータが渡されたことを表します。
var ErrEmptyData = New("empty data")
