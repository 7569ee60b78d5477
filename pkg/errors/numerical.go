package errors

import (
	"fmt"
	"math"
)

// CheckFinite は係数や指標のスライスに NaN・Inf が混入していないか検査し、
// 混入していれば位置つきの ValueError を返します。QR 分解がランク落ちを
// 黙って NaN で返すケースをここで捕まえます。
func CheckFinite(op string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValueError(op, fmt.Sprintf("non-finite value %v at index %d", v, i))
		}
	}
	return nil
}
