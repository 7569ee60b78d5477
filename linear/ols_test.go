package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// TestOLSSimpleRegression checks the matrix path against the closed-form
// solution of single-predictor least squares.
func TestOLSSimpleRegression(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2.1, 3.9, 6.2, 7.8}
	n := len(x)

	X := mat.NewDense(n, 1, x)
	Y := mat.NewDense(n, 1, y)

	ols := NewOLS([]string{"x"})
	require.NoError(t, ols.Fit(X, Y))
	sum, err := ols.Summary()
	require.NoError(t, err)

	// Closed form: slope = Sxy/Sxx, intercept = ȳ - slope·x̄.
	xBar, yBar := 2.5, 5.0
	sxx, sxy := 0.0, 0.0
	for i := range x {
		sxx += (x[i] - xBar) * (x[i] - xBar)
		sxy += (x[i] - xBar) * (y[i] - yBar)
	}
	slope := sxy / sxx
	intercept := yBar - slope*xBar

	assert.InDelta(t, slope, sum.Coefficients[0].Estimate, 1e-12)
	assert.InDelta(t, intercept, sum.Intercept.Estimate, 1e-12)
	assert.Equal(t, "x", sum.Coefficients[0].Term)
	assert.Equal(t, InterceptTerm, sum.Intercept.Term)

	rss, tss := 0.0, 0.0
	for i := range x {
		fit := intercept + slope*x[i]
		assert.InDelta(t, fit, sum.Fitted[i], 1e-12)
		assert.InDelta(t, y[i]-fit, sum.Residuals[i], 1e-12)
		rss += (y[i] - fit) * (y[i] - fit)
		tss += (y[i] - yBar) * (y[i] - yBar)
	}
	assert.InDelta(t, rss, sum.RSS, 1e-12)

	dof := float64(n - 2)
	sigma := math.Sqrt(rss / dof)
	assert.InDelta(t, sigma, sum.Sigma, 1e-12)

	// Standard errors from the textbook formulas.
	seSlope := sigma / math.Sqrt(sxx)
	seIntercept := sigma * math.Sqrt(1.0/float64(n)+xBar*xBar/sxx)
	assert.InDelta(t, seSlope, sum.Coefficients[0].StdErr, 1e-12)
	assert.InDelta(t, seIntercept, sum.Intercept.StdErr, 1e-12)
	assert.InDelta(t, slope/seSlope, sum.Coefficients[0].TValue, 1e-12)

	// The slope here is overwhelming, the intercept is not.
	assert.Less(t, sum.Coefficients[0].PValue, 0.005)
	assert.Greater(t, sum.Intercept.PValue, 0.5)

	assert.InDelta(t, 1-rss/tss, sum.R2, 1e-12)
	assert.InDelta(t, 1-(1-sum.R2)*float64(n-1)/dof, sum.AdjR2, 1e-12)
	assert.InDelta(t, float64(n)*math.Log(rss/float64(n))+4, sum.AIC, 1e-12)

	// Leverage has the closed form 1/n + (xᵢ-x̄)²/Sxx.
	for i := range x {
		h := 1.0/float64(n) + (x[i]-xBar)*(x[i]-xBar)/sxx
		assert.InDelta(t, h, sum.Leverage[i], 1e-12)

		d := 1 - h
		assert.InDelta(t, sum.Residuals[i]/(sigma*math.Sqrt(d)), sum.StdResiduals[i], 1e-12)
		cook := sum.Residuals[i] * sum.Residuals[i] * h / (2 * sigma * sigma * d * d)
		assert.InDelta(t, cook, sum.CooksD[i], 1e-12)
	}

	assert.Equal(t, n, sum.N)
	assert.Equal(t, 1, sum.P)
}

func TestOLSPredictMatchesFitted(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1.0, 0.5,
		2.0, 1.5,
		3.0, 0.2,
		4.0, 2.2,
		5.0, 1.1,
	})
	Y := mat.NewDense(5, 1, []float64{2.0, 4.1, 5.8, 8.3, 9.9})

	ols := NewOLS([]string{"a", "b"})
	require.NoError(t, ols.Fit(X, Y))
	sum, err := ols.Summary()
	require.NoError(t, err)

	pred, err := ols.Predict(X)
	require.NoError(t, err)
	for i := range pred {
		assert.InDelta(t, sum.Fitted[i], pred[i], 1e-12)
	}
}

func TestOLSSingularDesign(t *testing.T) {
	// Second column duplicates the first, so the design is rank
	// deficient.
	X := mat.NewDense(6, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		4, 4,
		5, 5,
		6, 6,
	})
	Y := mat.NewDense(6, 1, []float64{1.1, 2.0, 3.2, 3.9, 5.1, 6.0})

	ols := NewOLS([]string{"a", "a_copy"})
	err := ols.Fit(X, Y)
	require.Error(t, err)

	var sing *errors.SingularityError
	assert.True(t, errors.As(err, &sing), "got %v", err)
}

func TestOLSValidation(t *testing.T) {
	t.Run("row mismatch", func(t *testing.T) {
		ols := NewOLS([]string{"a"})
		err := ols.Fit(mat.NewDense(4, 1, nil), mat.NewDense(3, 1, nil))
		require.Error(t, err)
	})

	t.Run("response not a column", func(t *testing.T) {
		ols := NewOLS([]string{"a"})
		err := ols.Fit(mat.NewDense(4, 1, nil), mat.NewDense(4, 2, nil))
		require.Error(t, err)
	})

	t.Run("terms mismatch", func(t *testing.T) {
		ols := NewOLS([]string{"a", "b"})
		err := ols.Fit(mat.NewDense(4, 1, nil), mat.NewDense(4, 1, nil))
		require.Error(t, err)
	})

	t.Run("no residual degrees of freedom", func(t *testing.T) {
		ols := NewOLS([]string{"a", "b"})
		X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})
		Y := mat.NewDense(3, 1, []float64{1, 2, 3})
		err := ols.Fit(X, Y)
		require.Error(t, err)

		var modelErr *errors.ModelError
		assert.True(t, errors.As(err, &modelErr))
	})

	t.Run("unfitted access", func(t *testing.T) {
		ols := NewOLS([]string{"a"})
		_, err := ols.Summary()
		require.Error(t, err)

		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))

		_, err = ols.Predict(mat.NewDense(2, 1, nil))
		require.Error(t, err)
	})
}

func TestFitSummaryCoefficientLookup(t *testing.T) {
	sum := &FitSummary{
		Intercept: Coefficient{Term: InterceptTerm, Estimate: 1.5},
		Coefficients: []Coefficient{
			{Term: "a", Estimate: 2.0},
			{Term: "b", Estimate: -0.5},
		},
	}

	c, ok := sum.Coefficient("b")
	require.True(t, ok)
	assert.Equal(t, -0.5, c.Estimate)

	c, ok = sum.Coefficient(InterceptTerm)
	require.True(t, ok)
	assert.Equal(t, 1.5, c.Estimate)

	_, ok = sum.Coefficient("missing")
	assert.False(t, ok)
}
