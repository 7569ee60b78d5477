// Package metrics は回帰モデルの評価指標を提供する。
// OLS の要約統計と、lasso のクロスバリデーションのスコアリングに使う。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// checkPair は観測値と予測値の組を検証し、共通の長さを返す。
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if m := yPred.Len(); m != n {
		return 0, errors.NewDimensionError(op, n, m, 0)
	}
	return n, nil
}

// MSE は平均二乗誤差 Σ(y−ŷ)²/n を返す。
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sse float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sse += d * d
	}
	return sse / float64(n), nil
}

// R2Score は決定係数 1 − RSS/TSS を返す。応答に分散がない場合、
// 比が定義できないためエラーを返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var mean float64
	for i := 0; i < n; i++ {
		mean += yTrue.AtVec(i)
	}
	mean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yi := yTrue.AtVec(i)
		dt := yi - mean
		dr := yi - yPred.AtVec(i)
		tss += dt * dt
		rss += dr * dr
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// AdjustedR2 は自由度調整済み決定係数を計算する
//
// adjR² = 1 - (1 - R²) * (n - 1) / (n - p - 1)
//
// nは観測数、pは切片を除いた説明変数の数。
func AdjustedR2(r2 float64, n, p int) (float64, error) {
	if n-p-1 <= 0 {
		return 0, errors.NewValueError("AdjustedR2", "residual degrees of freedom must be positive")
	}
	return 1 - (1-r2)*float64(n-1)/float64(n-p-1), nil
}

// AIC は赤池情報量規準を計算する
//
// AIC = n * ln(RSS/n) + 2k
//
// kは切片を含む推定パラメータ数。R言語のextractAICと同じ規約で、
// 定数項 n*ln(2π) + n は省略する。
func AIC(rss float64, n, k int) (float64, error) {
	if n <= 0 {
		return 0, errors.NewValueError("AIC", "sample size must be positive")
	}
	if rss <= 0 {
		return 0, errors.Newf("AIC: residual sum of squares must be positive, got %g", rss)
	}
	return float64(n)*math.Log(rss/float64(n)) + 2*float64(k), nil
}
