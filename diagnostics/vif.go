// Package diagnostics provides collinearity and correlation checks for
// the station regression models: variance inflation factors with an
// iterative trim, and Spearman rank correlation matrices.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// DefaultVIFThreshold is the conventional cutoff above which a
// predictor is considered too collinear to keep.
const DefaultVIFThreshold = 5.0

// VIF computes the variance inflation factor of every column of X by
// regressing it on the remaining columns plus an intercept:
//
//	VIF_j = 1 / (1 - R²_j)
//
// A single-column design has VIF 1 by definition. Perfect collinearity
// yields +Inf.
func VIF(X mat.Matrix) ([]float64, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("diagnostics.VIF", "empty design matrix", errors.ErrEmptyData)
	}
	if p == 1 {
		return []float64{1.0}, nil
	}
	if n < p+1 {
		return nil, errors.NewModelError("diagnostics.VIF", "not enough rows for auxiliary regressions", nil)
	}

	out := make([]float64, p)
	for j := 0; j < p; j++ {
		r2, ok := auxRSquared(X, j)
		if !ok || 1-r2 <= 0 {
			out[j] = math.Inf(1)
			continue
		}
		out[j] = 1 / (1 - r2)
	}
	return out, nil
}

// auxRSquared regresses column j on the remaining columns with an
// intercept and returns the coefficient of determination. ok is false
// when the auxiliary system is singular or the column is constant.
func auxRSquared(X mat.Matrix, j int) (r2 float64, ok bool) {
	n, p := X.Dims()

	design := mat.NewDense(n, p, nil)
	target := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1.0)
		jj := 1
		for k := 0; k < p; k++ {
			if k == j {
				continue
			}
			design.Set(i, jj, X.At(i, k))
			jj++
		}
		target.Set(i, 0, X.At(i, j))
	}

	var qr mat.QR
	qr.Factorize(design)
	coef := mat.NewDense(p, 1, nil)
	if err := qr.SolveTo(coef, false, target); err != nil {
		return 0, false
	}

	mean := 0.0
	for i := 0; i < n; i++ {
		mean += target.At(i, 0)
	}
	mean /= float64(n)

	rss, tss := 0.0, 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for k := 0; k < p; k++ {
			pred += design.At(i, k) * coef.At(k, 0)
		}
		d := target.At(i, 0) - pred
		rss += d * d
		t := target.At(i, 0) - mean
		tss += t * t
	}
	if tss == 0 {
		return 0, false
	}
	return 1 - rss/tss, true
}

// TrimStep records one removal of the iterative VIF reduction.
type TrimStep struct {
	Term string
	VIF  float64
}

// TrimResult is the outcome of TrimByVIF.
type TrimResult struct {
	// Kept lists the surviving terms in their original relative order,
	// and VIFs their final factors in the same order.
	Kept []string
	VIFs []float64

	// Removed lists the dropped terms in drop order with the factor
	// that condemned them.
	Removed []TrimStep
}

// TrimByVIF repeatedly drops the predictor with the largest factor while
// it exceeds the threshold, recomputing factors after every removal.
// Ties keep the earliest column. The trim never removes the last
// remaining predictor.
func TrimByVIF(X mat.Matrix, terms []string, threshold float64) (*TrimResult, error) {
	n, p := X.Dims()
	if p != len(terms) {
		return nil, errors.NewDimensionError("diagnostics.TrimByVIF", len(terms), p, 1)
	}
	if threshold <= 1 {
		return nil, errors.NewValueError("diagnostics.TrimByVIF", "threshold must exceed 1")
	}

	keep := make([]int, p)
	for j := range keep {
		keep[j] = j
	}
	kept := append([]string(nil), terms...)

	res := &TrimResult{}
	for {
		sub := pickColumns(X, n, keep)
		vifs, err := VIF(sub)
		if err != nil {
			return nil, err
		}

		worst := 0
		for j := 1; j < len(vifs); j++ {
			if vifs[j] > vifs[worst] {
				worst = j
			}
		}
		if len(keep) == 1 || vifs[worst] <= threshold {
			res.Kept = kept
			res.VIFs = vifs
			return res, nil
		}

		res.Removed = append(res.Removed, TrimStep{Term: kept[worst], VIF: vifs[worst]})
		keep = append(keep[:worst], keep[worst+1:]...)
		kept = append(kept[:worst], kept[worst+1:]...)
	}
}

func pickColumns(X mat.Matrix, n int, idx []int) *mat.Dense {
	out := mat.NewDense(n, len(idx), nil)
	for jj, j := range idx {
		for i := 0; i < n; i++ {
			out.Set(i, jj, X.At(i, j))
		}
	}
	return out
}
