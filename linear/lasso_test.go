package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// orthogonalDesign builds an 8×3 design from mutually orthogonal ±1
// patterns. Every column has exact zero mean and unit population
// variance, so the lasso solution is the soft-thresholded least squares
// solution and can be checked in closed form.
func orthogonalDesign() (*mat.Dense, []float64, []float64, []float64) {
	a := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	b := []float64{1, 1, -1, -1, 1, 1, -1, -1}
	c := []float64{1, -1, 1, -1, 1, -1, 1, -1}

	X := mat.NewDense(8, 3, nil)
	for i := 0; i < 8; i++ {
		X.Set(i, 0, a[i])
		X.Set(i, 1, b[i])
		X.Set(i, 2, c[i])
	}
	return X, a, b, c
}

func TestSoftThreshold(t *testing.T) {
	tests := []struct {
		name   string
		z      float64
		lambda float64
		want   float64
	}{
		{"above threshold", 2.0, 0.5, 1.5},
		{"below negative threshold", -2.0, 0.5, -1.5},
		{"inside threshold", 0.3, 0.5, 0.0},
		{"at threshold", 0.5, 0.5, 0.0},
		{"zero lambda passes through", 1.25, 0.0, 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, softThreshold(tt.z, tt.lambda))
		})
	}
}

func TestLassoOrthogonalDesign(t *testing.T) {
	X, a, b, _ := orthogonalDesign()

	// y = 2a - 1.5b, already centered.
	y := make([]float64, 8)
	for i := range y {
		y[i] = 2*a[i] - 1.5*b[i]
	}

	tests := []struct {
		name   string
		lambda float64
		want   []float64
	}{
		{"no penalty recovers least squares", 0.0, []float64{2.0, -1.5, 0.0}},
		{"moderate penalty shrinks", 0.3, []float64{1.7, -1.2, 0.0}},
		{"heavy penalty zeroes the weak term", 1.6, []float64{0.4, 0.0, 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lasso := NewLasso(tt.lambda)
			require.NoError(t, lasso.Fit(X, y))

			coef, err := lasso.Coef()
			require.NoError(t, err)
			for j, want := range tt.want {
				assert.InDelta(t, want, coef[j], 1e-12, "coef[%d]", j)
			}
			assert.True(t, lasso.Converged())
		})
	}
}

func TestLassoWarmStart(t *testing.T) {
	X, a, b, _ := orthogonalDesign()
	y := make([]float64, 8)
	for i := range y {
		y[i] = 2*a[i] - 1.5*b[i]
	}

	lasso := NewLasso(1.6)
	lasso.WarmStart = true
	require.NoError(t, lasso.Fit(X, y))

	// Continue down the path; the warm start must land on the same
	// solution a cold start finds.
	lasso.Lambda = 0.3
	require.NoError(t, lasso.Fit(X, y))

	coef, err := lasso.Coef()
	require.NoError(t, err)
	assert.InDelta(t, 1.7, coef[0], 1e-12)
	assert.InDelta(t, -1.2, coef[1], 1e-12)
	assert.InDelta(t, 0.0, coef[2], 1e-12)
}

func TestLassoPredict(t *testing.T) {
	X, a, b, _ := orthogonalDesign()
	y := make([]float64, 8)
	for i := range y {
		y[i] = 2*a[i] - 1.5*b[i]
	}

	lasso := NewLasso(0)
	require.NoError(t, lasso.Fit(X, y))

	pred, err := lasso.Predict(X)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred[i], 1e-10)
	}
}

func TestLassoNonConvergenceWarns(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(nil)

	X, a, _, _ := orthogonalDesign()
	y := make([]float64, 8)
	for i := range y {
		y[i] = 2 * a[i]
	}

	lasso := NewLasso(0.1)
	lasso.MaxIter = 1
	require.NoError(t, lasso.Fit(X, y))

	assert.False(t, lasso.Converged())
	require.Error(t, captured)

	var conv *errors.ConvergenceWarning
	require.True(t, errors.As(captured, &conv))
	assert.Equal(t, "Lasso", conv.Algorithm)
	assert.Equal(t, 1, conv.Iterations)
}

func TestLassoValidation(t *testing.T) {
	X, _, _, _ := orthogonalDesign()

	t.Run("response length mismatch", func(t *testing.T) {
		lasso := NewLasso(0.1)
		err := lasso.Fit(X, []float64{1, 2, 3})
		require.Error(t, err)

		var dimErr *errors.DimensionError
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("negative lambda", func(t *testing.T) {
		lasso := NewLasso(-0.5)
		err := lasso.Fit(X, make([]float64, 8))
		require.Error(t, err)
	})

	t.Run("unfitted access", func(t *testing.T) {
		lasso := NewLasso(0.1)
		_, err := lasso.Coef()
		require.Error(t, err)

		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))

		_, err = lasso.Predict(X)
		require.Error(t, err)
	})
}

func TestLambdaGrid(t *testing.T) {
	X, a, b, _ := orthogonalDesign()
	y := make([]float64, 8)
	for i := range y {
		y[i] = 2*a[i] - 1.5*b[i]
	}

	grid, err := LambdaGrid(X, y, 5, 0.01)
	require.NoError(t, err)
	require.Len(t, grid, 5)

	// λmax = max_j |(1/n)·x_jᵀy| = 2 for the strongest column.
	assert.InDelta(t, 2.0, grid[0], 1e-12)
	assert.InDelta(t, 0.02, grid[4], 1e-12)

	// Descending and evenly spaced on the log scale.
	for i := 1; i < len(grid); i++ {
		assert.Less(t, grid[i], grid[i-1])
	}
	for i := 2; i < len(grid); i++ {
		assert.InDelta(t, grid[1]/grid[0], grid[i]/grid[i-1], 1e-9)
	}
}

func TestLambdaGridValidation(t *testing.T) {
	X, a, _, _ := orthogonalDesign()
	y := make([]float64, 8)
	for i := range y {
		y[i] = a[i]
	}

	_, err := LambdaGrid(X, y, 1, 0.01)
	assert.Error(t, err, "nlambda below 2")

	_, err = LambdaGrid(X, y, 10, 1.5)
	assert.Error(t, err, "ratio above 1")

	_, err = LambdaGrid(X, make([]float64, 8), 10, 0.01)
	assert.Error(t, err, "uncorrelated response")
}
