package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclestat/pkg/errors"
)

func TestWithLogTrips(t *testing.T) {
	tbl, err := NewTable(
		[]string{"ST001", "ST002", "ST003"},
		[]string{ColTrips},
		map[string][]float64{ColTrips: {100, 1000, 250}},
	)
	require.NoError(t, err)

	out, err := WithLogTrips(tbl)
	require.NoError(t, err)

	logs, err := out.Column(ColLogTrips)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, logs[0], 1e-12)
	assert.InDelta(t, 3.0, logs[1], 1e-12)
	assert.InDelta(t, math.Log10(250), logs[2], 1e-12)

	// 元のTableには応答列が追加されない
	assert.False(t, tbl.HasColumn(ColLogTrips))
}

func TestWithLogTripsRejectsNonPositive(t *testing.T) {
	tbl, err := NewTable(
		[]string{"ST001", "ST017"},
		[]string{ColTrips},
		map[string][]float64{ColTrips: {100, 0}},
	)
	require.NoError(t, err)

	_, err = WithLogTrips(tbl)
	require.Error(t, err)

	var domErr *errors.DomainError
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, "ST017", domErr.Station)
	assert.Equal(t, 0.0, domErr.Value)
	assert.Equal(t, "log10", domErr.Op)
}
