package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// Orthogonal ±1 patterns over 8 rows; every auxiliary regression has
// exactly zero R².
func orthogonalMatrix() *mat.Dense {
	a := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	b := []float64{1, 1, -1, -1, 1, 1, -1, -1}
	c := []float64{1, -1, 1, -1, 1, -1, 1, -1}

	X := mat.NewDense(8, 3, nil)
	for i := 0; i < 8; i++ {
		X.Set(i, 0, a[i])
		X.Set(i, 1, b[i])
		X.Set(i, 2, c[i])
	}
	return X
}

// Two columns sharing the pattern a with an orthogonal 0.4c offset, plus
// an unrelated third column. The squared correlation of the pair is
// 64/74.24, so both factors are exactly 7.25.
func collinearMatrix() (*mat.Dense, []string) {
	a := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	b := []float64{1, 1, -1, -1, 1, 1, -1, -1}
	c := []float64{1, -1, 1, -1, 1, -1, 1, -1}

	X := mat.NewDense(8, 3, nil)
	for i := 0; i < 8; i++ {
		X.Set(i, 0, a[i])
		X.Set(i, 1, a[i]+0.4*c[i])
		X.Set(i, 2, b[i])
	}
	return X, []string{"x1", "x2", "x3"}
}

func TestVIFOrthogonalColumns(t *testing.T) {
	vifs, err := VIF(orthogonalMatrix())
	require.NoError(t, err)
	require.Len(t, vifs, 3)
	for j, v := range vifs {
		assert.InDelta(t, 1.0, v, 1e-10, "column %d", j)
	}
}

func TestVIFCorrelatedPair(t *testing.T) {
	X, _ := collinearMatrix()
	vifs, err := VIF(X)
	require.NoError(t, err)

	assert.InDelta(t, 7.25, vifs[0], 1e-9)
	assert.InDelta(t, 7.25, vifs[1], 1e-9)
	assert.InDelta(t, 1.0, vifs[2], 1e-9)
}

func TestVIFPerfectCollinearity(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	X := mat.NewDense(8, 2, nil)
	for i := 0; i < 8; i++ {
		X.Set(i, 0, a[i])
		X.Set(i, 1, 2*a[i])
	}

	vifs, err := VIF(X)
	require.NoError(t, err)
	assert.Greater(t, vifs[0], 1e6)
	assert.Greater(t, vifs[1], 1e6)
}

func TestVIFSingleColumn(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	vifs, err := VIF(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0}, vifs)
}

func TestTrimByVIF(t *testing.T) {
	X, terms := collinearMatrix()

	res, err := TrimByVIF(X, terms, 5.0)
	require.NoError(t, err)

	// The tie between x1 and x2 resolves to the earlier column.
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "x1", res.Removed[0].Term)
	assert.InDelta(t, 7.25, res.Removed[0].VIF, 1e-9)

	assert.Equal(t, []string{"x2", "x3"}, res.Kept)
	require.Len(t, res.VIFs, 2)
	for _, v := range res.VIFs {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestTrimByVIFKeepsCleanDesign(t *testing.T) {
	X := orthogonalMatrix()
	terms := []string{"a", "b", "c"}

	res, err := TrimByVIF(X, terms, 5.0)
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
	assert.Equal(t, terms, res.Kept)
}

func TestTrimByVIFValidation(t *testing.T) {
	X := orthogonalMatrix()

	_, err := TrimByVIF(X, []string{"a", "b"}, 5.0)
	assert.Error(t, err, "terms must match columns")

	_, err = TrimByVIF(X, []string{"a", "b", "c"}, 1.0)
	assert.Error(t, err, "threshold must exceed 1")
}
