package diagnostics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cyclestat/pkg/errors"
)

// SpearmanMatrix computes the Spearman rank correlation of every column
// pair of X. Ties receive average ranks, then the rank vectors go
// through the ordinary product-moment correlation.
func SpearmanMatrix(X mat.Matrix) (*mat.SymDense, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("diagnostics.SpearmanMatrix", "empty matrix", errors.ErrEmptyData)
	}
	if n < 2 {
		return nil, errors.NewValueError("diagnostics.SpearmanMatrix", "need at least two rows")
	}

	ranks := make([][]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = X.At(i, j)
		}
		ranks[j] = averageRanks(col)
	}

	m := mat.NewSymDense(p, nil)
	for a := 0; a < p; a++ {
		m.SetSym(a, a, 1.0)
		for b := a + 1; b < p; b++ {
			m.SetSym(a, b, stat.Correlation(ranks[a], ranks[b], nil))
		}
	}
	return m, nil
}

// averageRanks assigns 1-based ranks with ties averaged.
func averageRanks(v []float64) []float64 {
	n := len(v)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && v[idx[end]] == v[idx[start]] {
			end++
		}
		// Mean of the 1-based positions start+1 .. end.
		avg := float64(start+1+end) / 2.0
		for k := start; k < end; k++ {
			ranks[idx[k]] = avg
		}
		start = end
	}
	return ranks
}

// CorrelatedPair is a column pair whose absolute rank correlation
// reaches the reporting threshold.
type CorrelatedPair struct {
	TermA string
	TermB string
	Rho   float64
}

// HighlyCorrelated lists the pairs with |ρ| at or above the threshold,
// strongest first. terms must match the matrix order.
func HighlyCorrelated(m *mat.SymDense, terms []string, threshold float64) ([]CorrelatedPair, error) {
	p := m.SymmetricDim()
	if p != len(terms) {
		return nil, errors.NewDimensionError("diagnostics.HighlyCorrelated", len(terms), p, 1)
	}

	var pairs []CorrelatedPair
	for a := 0; a < p; a++ {
		for b := a + 1; b < p; b++ {
			rho := m.At(a, b)
			if math.Abs(rho) >= threshold {
				pairs = append(pairs, CorrelatedPair{TermA: terms[a], TermB: terms[b], Rho: rho})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Rho) > math.Abs(pairs[j].Rho)
	})
	return pairs, nil
}
