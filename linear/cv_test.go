package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKFoldSplitSizes(t *testing.T) {
	kf := NewKFold(10, false, 0)
	folds, err := kf.Split(62)
	require.NoError(t, err)
	require.Len(t, folds, 10)

	// 62 rows over 10 folds: the first two folds take the remainder.
	wantSizes := []int{7, 7, 6, 6, 6, 6, 6, 6, 6, 6}
	seen := make(map[int]bool, 62)
	for i, fold := range folds {
		assert.Len(t, fold.TestIndices, wantSizes[i], "fold %d", i)
		assert.Len(t, fold.TrainIndices, 62-wantSizes[i], "fold %d", i)
		for _, idx := range fold.TestIndices {
			assert.False(t, seen[idx], "row %d assigned to two folds", idx)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 62)

	// Without shuffling the folds are contiguous blocks in row order.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, folds[0].TestIndices)
	assert.Equal(t, []int{7, 8, 9, 10, 11, 12, 13}, folds[1].TestIndices)
	assert.Equal(t, []int{56, 57, 58, 59, 60, 61}, folds[9].TestIndices)

	// Train indices keep row order and skip exactly the test block.
	assert.Equal(t, 7, folds[0].TrainIndices[0])
	assert.Equal(t, 6, folds[1].TrainIndices[6])
	assert.Equal(t, 14, folds[1].TrainIndices[7])
}

func TestKFoldShuffle(t *testing.T) {
	kf1 := NewKFold(5, true, 42)
	kf2 := NewKFold(5, true, 42)
	kf3 := NewKFold(5, true, 7)

	a, err := kf1.Split(30)
	require.NoError(t, err)
	b, err := kf2.Split(30)
	require.NoError(t, err)
	c, err := kf3.Split(30)
	require.NoError(t, err)

	assert.Equal(t, a, b, "same seed must reproduce the same split")
	assert.NotEqual(t, a, c, "different seeds should differ")

	plain := NewKFold(5, false, 0)
	d, err := plain.Split(30)
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "shuffled split should differ from row order")
}

func TestKFoldTooFewRows(t *testing.T) {
	kf := NewKFold(10, false, 0)
	_, err := kf.Split(5)
	assert.Error(t, err)
}

func TestKFoldDefaultsSplits(t *testing.T) {
	kf := NewKFold(0, false, 0)
	assert.Equal(t, 10, kf.NSplits)
}

func TestCrossValidateLasso(t *testing.T) {
	// Strong deterministic signal on the first column, repeated
	// orthogonal patterns so every fold keeps usable variation.
	n := 40
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	pat1 := []float64{1, 1, -1, -1}
	pat2 := []float64{1, -1, 1, -1}
	for i := 0; i < n; i++ {
		x1 := pat1[i%4] * (1 + 0.1*float64(i%5))
		x2 := pat2[i%4] * (1 + 0.07*float64(i%3))
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y[i] = 3*x1 + 0.01*pat2[(i+1)%4]
	}

	grid := []float64{2.0, 1.0, 0.5, 0.1, 0.01}
	kf := NewKFold(5, false, 0)

	res, err := CrossValidateLasso(X, y, grid, kf)
	require.NoError(t, err)

	require.Len(t, res.MeanMSE, len(grid))
	require.Len(t, res.SE, len(grid))
	assert.Equal(t, grid, res.Lambdas)

	for i := range grid {
		assert.False(t, res.MeanMSE[i] < 0, "mean MSE must be non-negative")
		assert.False(t, res.SE[i] < 0, "SE must be non-negative")
	}

	// The one standard error penalty never undercuts the minimizer.
	assert.GreaterOrEqual(t, res.Lambda1SE, res.LambdaMin)

	// With a dominant signal, heavy penalties must score worse than
	// light ones.
	assert.Greater(t, res.MeanMSE[0], res.MeanMSE[len(grid)-1])

	// Same inputs, same curve.
	again, err := CrossValidateLasso(X, y, grid, kf)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestCrossValidateLassoValidation(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := make([]float64, 10)
	kf := NewKFold(5, false, 0)

	_, err := CrossValidateLasso(X, y, nil, kf)
	assert.Error(t, err, "empty grid")

	_, err = CrossValidateLasso(X, make([]float64, 3), []float64{0.1}, kf)
	assert.Error(t, err, "length mismatch")
}
