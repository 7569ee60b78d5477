package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func selectionFixture() (*mat.Dense, []float64, []string) {
	// Repeating orthogonal patterns with mild amplitude drift, so every
	// cross-validation fold sees the same structure. The response loads
	// almost entirely on the first column.
	n := 60
	X := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	pat1 := []float64{1, 1, -1, -1}
	pat2 := []float64{1, -1, 1, -1}
	pat3 := []float64{1, -1, -1, 1}
	for i := 0; i < n; i++ {
		x1 := pat1[i%4] * (1 + 0.1*float64(i%5))
		x2 := pat2[i%4] * (1 + 0.08*float64(i%3))
		x3 := pat3[i%4] * (1 + 0.05*float64(i%7))
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		X.Set(i, 2, x3)
		y[i] = 2.5*x1 + 0.02*pat3[(i+2)%4]
	}
	return X, y, []string{"signal", "noise_a", "noise_b"}
}

func TestSelectFeatures(t *testing.T) {
	X, y, terms := selectionFixture()

	opts := DefaultSelectionOptions()
	opts.Folds = 5

	sel, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)

	assert.Equal(t, RuleOneSE, sel.Rule)
	assert.Equal(t, sel.CV.Lambda1SE, sel.Lambda)
	assert.True(t, sel.Converged)

	// Retained and dropped partition the candidates.
	assert.Len(t, sel.Retained, len(terms)-len(sel.Dropped))
	for _, term := range terms {
		inRetained := containsTerm(sel.Retained, term)
		inDropped := containsTerm(sel.Dropped, term)
		assert.True(t, inRetained != inDropped, "term %s must be in exactly one set", term)
	}

	// The dominant predictor survives the penalty.
	assert.Contains(t, sel.Retained, "signal")

	// Coefficients line up with the candidate order.
	require.Len(t, sel.Coef, len(terms))
	assert.NotZero(t, sel.Coef[0])

	// Exact zeros and the dropped set agree.
	for j, term := range terms {
		if sel.Coef[j] == 0 {
			assert.Contains(t, sel.Dropped, term)
		} else {
			assert.Contains(t, sel.Retained, term)
		}
	}
}

func TestSelectFeaturesMinRule(t *testing.T) {
	X, y, terms := selectionFixture()

	opts := DefaultSelectionOptions()
	opts.Folds = 5
	opts.Rule = RuleMin

	sel, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)
	assert.Equal(t, RuleMin, sel.Rule)
	assert.Equal(t, sel.CV.LambdaMin, sel.Lambda)
	assert.LessOrEqual(t, sel.Lambda, sel.CV.Lambda1SE)
}

func TestSelectFeaturesDeterministic(t *testing.T) {
	X, y, terms := selectionFixture()

	opts := DefaultSelectionOptions()
	opts.Folds = 5

	first, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)
	second, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSelectFeaturesShuffledFoldsStayReproducible(t *testing.T) {
	X, y, terms := selectionFixture()

	opts := DefaultSelectionOptions()
	opts.Folds = 5
	opts.Shuffle = true
	opts.Seed = 20240117

	first, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)
	second, err := SelectFeatures(X, y, terms, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectFeaturesValidation(t *testing.T) {
	X, y, terms := selectionFixture()

	opts := DefaultSelectionOptions()
	opts.Rule = SelectionRule("best")
	_, err := SelectFeatures(X, y, terms, opts)
	assert.Error(t, err, "unknown rule")

	opts = DefaultSelectionOptions()
	_, err = SelectFeatures(X, y, []string{"only_one"}, opts)
	assert.Error(t, err, "terms must match columns")
}
