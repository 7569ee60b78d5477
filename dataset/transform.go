package dataset

import (
	"math"

	"cyclestat/pkg/errors"
)

// WithLogTrips returns a new Table carrying the derived log10 ridership
// column. The transform is recomputed from whatever rows it is given, so
// a trimmed subset derives its own response column.
//
// Any non-positive trip count is a DomainError naming the station.
func WithLogTrips(t Table) (Table, error) {
	trips, err := t.Column(ColTrips)
	if err != nil {
		return Table{}, err
	}

	stations := t.Stations()
	logs := make([]float64, len(trips))
	for i, v := range trips {
		if v <= 0 {
			return Table{}, errors.NewDomainError("log10", stations[i], v)
		}
		logs[i] = math.Log10(v)
	}
	return t.WithColumn(ColLogTrips, logs)
}
