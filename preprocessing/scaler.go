// Package preprocessing は回帰前の列単位スケーリングを提供する。
// ペナルティ付き推定では各列を平均0・標準偏差1に揃えてから係数を求める。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cyclestat/pkg/errors"
)

// minScale 未満の標準偏差は定数列とみなし、ゼロ除算を避けるため 1 に置き換える。
const minScale = 1e-8

// StandardScaler は列ごとの標準化。統計量は Fit に渡した行列から学習し、
// Transform は学習済みの Mean / Scale をそのまま別の行列にも適用できる
// （交差検証では訓練行で学習して検証行を変換する）。
type StandardScaler struct {
	// Mean と Scale は学習済みの列統計量。Scale は母集団標準偏差（n 分母）。
	Mean  []float64
	Scale []float64

	// NFeatures は Fit 時の列数。Transform は同じ列数のみ受け付ける。
	NFeatures int

	// WithMean / WithStd で中心化とスケーリングを個別に無効化できる。
	WithMean bool
	WithStd  bool

	fitted bool
}

// NewStandardScaler は中心化・スケーリングの有無を指定してスケーラーを作る。
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean, WithStd: withStd}
}

// NewStandardScalerDefault は両方を有効にした通常のスケーラーを返す。
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は列ごとの平均と標準偏差を学習する。
func (s *StandardScaler) Fit(X mat.Matrix) error {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	mean := make([]float64, p)
	scale := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		if s.WithMean {
			mean[j] = stat.Mean(col, nil)
		}

		scale[j] = 1.0
		if s.WithStd {
			// 偏差は学習した平均まわりで取る。WithMean を切った場合は
			// 原点まわりの二乗平均平方根になる。
			ss := 0.0
			for _, v := range col {
				d := v - mean[j]
				ss += d * d
			}
			if sd := math.Sqrt(ss / float64(n)); sd >= minScale {
				scale[j] = sd
			}
		}
	}

	s.Mean = mean
	s.Scale = scale
	s.NFeatures = p
	s.fitted = true
	return nil
}

// Transform は学習済み統計量で X を標準化した新しい行列を返す。
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}
	_, p := X.Dims()
	if p != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, p, 1)
	}

	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return &out, nil
}

// FitTransform は X で学習し、その場で X 自身を変換する。
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// String は fmt.Stringer。学習後は列数も含める。
func (s *StandardScaler) String() string {
	if !s.fitted {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
