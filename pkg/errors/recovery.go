// gonum/mat は形状違反で panic する。数値カーネルの入口で defer Recover を
// 張り、panic を通常のエラーに変換して解析の実行全体が落ちないようにする。

package errors

import (
	"fmt"
	"runtime/debug"
)

// Recover は defer から呼び、panic を err へ変換する。
//
//	func (m *OLS) Fit(...) (err error) {
//	    defer errors.Recover(&err, "OLS.Fit")
//	    ...
//	}
//
// err が既に設定されていた場合は panic 情報で包み、どちらの失敗も失わない。
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// PanicError は回収した panic 値と、その時点のスタックを保持する。
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

// NewPanicError は現在のスタックを添えて PanicError を作る。
func NewPanicError(operation string, value interface{}) *PanicError {
	return &PanicError{
		PanicValue: value,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}
