// Package dataset loads the station attribute file and derives the
// log-ridership response. Tables are immutable values: every derivation
// returns a new Table and never mutates the receiver, so each pipeline
// stage sees exactly the data it was handed.
package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// Column names of the station attribute file, in schema order.
const (
	ColStationID       = "station_id"
	ColTrips           = "trips"
	ColPopDensity      = "pop_density"
	ColJobDensity      = "job_density"
	ColAge1634Pct      = "age_16_34_pct"
	ColNoCarPct        = "no_car_pct"
	ColUniversityPct   = "university_pct"
	ColIncomeDeprivPct = "income_depriv_pct"
	ColEmployDeprivPct = "employ_depriv_pct"
	ColSlopePct        = "slope_pct"
	ColTransitDistM    = "transit_dist_m"
	ColCycleLaneRatio  = "cycle_lane_ratio"
	ColDowntownDistM   = "downtown_dist_m"
	ColTransitFlag     = "transit_flag"

	// ColLogTrips is the derived log10 response, added by WithLogTrips.
	ColLogTrips = "log_trips"
)

// Schema returns the expected CSV header, in order.
func Schema() []string {
	return []string{
		ColStationID,
		ColTrips,
		ColPopDensity,
		ColJobDensity,
		ColAge1634Pct,
		ColNoCarPct,
		ColUniversityPct,
		ColIncomeDeprivPct,
		ColEmployDeprivPct,
		ColSlopePct,
		ColTransitDistM,
		ColCycleLaneRatio,
		ColDowntownDistM,
		ColTransitFlag,
	}
}

// Table is an immutable column-oriented view of the station records.
type Table struct {
	stations []string
	names    []string
	cols     map[string][]float64
}

// NewTable builds a Table from a station identifier column and named
// numeric columns. Column order follows names.
func NewTable(stations []string, names []string, cols map[string][]float64) (Table, error) {
	n := len(stations)
	if n == 0 {
		return Table{}, errors.NewModelError("dataset.NewTable", "empty table", errors.ErrEmptyData)
	}
	for _, name := range names {
		vals, ok := cols[name]
		if !ok {
			return Table{}, errors.NewValueError("dataset.NewTable", "missing column "+name)
		}
		if len(vals) != n {
			return Table{}, errors.NewDimensionError("dataset.NewTable", n, len(vals), 0)
		}
	}

	t := Table{
		stations: append([]string(nil), stations...),
		names:    append([]string(nil), names...),
		cols:     make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		t.cols[name] = append([]float64(nil), cols[name]...)
	}
	return t, nil
}

// NRows returns the number of station rows.
func (t Table) NRows() int {
	return len(t.stations)
}

// Names returns the numeric column names in order.
func (t Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Stations returns the station identifier column.
func (t Table) Stations() []string {
	return append([]string(nil), t.stations...)
}

// HasColumn reports whether a numeric column exists.
func (t Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns a copy of a numeric column.
func (t Table) Column(name string) ([]float64, error) {
	vals, ok := t.cols[name]
	if !ok {
		return nil, errors.NewValueError("dataset.Column", "unknown column "+name)
	}
	return append([]float64(nil), vals...), nil
}

// WithColumn returns a new Table with the named column replaced or appended.
func (t Table) WithColumn(name string, values []float64) (Table, error) {
	if len(values) != t.NRows() {
		return Table{}, errors.NewDimensionError("dataset.WithColumn", t.NRows(), len(values), 0)
	}

	out := t.clone()
	if !out.hasName(name) {
		out.names = append(out.names, name)
	}
	out.cols[name] = append([]float64(nil), values...)
	return out, nil
}

// Subset returns a new Table containing the given rows, in the given order.
func (t Table) Subset(rows []int) (Table, error) {
	if len(rows) == 0 {
		return Table{}, errors.NewModelError("dataset.Subset", "empty subset", errors.ErrEmptyData)
	}
	for _, i := range rows {
		if i < 0 || i >= t.NRows() {
			return Table{}, errors.NewValueError("dataset.Subset", "row index out of range")
		}
	}

	out := Table{
		stations: make([]string, len(rows)),
		names:    append([]string(nil), t.names...),
		cols:     make(map[string][]float64, len(t.names)),
	}
	for j, i := range rows {
		out.stations[j] = t.stations[i]
	}
	for _, name := range t.names {
		src := t.cols[name]
		dst := make([]float64, len(rows))
		for j, i := range rows {
			dst[j] = src[i]
		}
		out.cols[name] = dst
	}
	return out, nil
}

// DropRows returns a new Table without the given rows.
func (t Table) DropRows(rows []int) (Table, error) {
	drop := make(map[int]bool, len(rows))
	for _, i := range rows {
		drop[i] = true
	}
	keep := make([]int, 0, t.NRows()-len(drop))
	for i := 0; i < t.NRows(); i++ {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	return t.Subset(keep)
}

// TopRowsBy returns the indices of the k rows with the largest values in
// the named column. Ties keep file order.
func (t Table) TopRowsBy(name string, k int) ([]int, error) {
	vals, ok := t.cols[name]
	if !ok {
		return nil, errors.NewValueError("dataset.TopRowsBy", "unknown column "+name)
	}
	if k < 0 || k > len(vals) {
		return nil, errors.NewValueError("dataset.TopRowsBy", "k out of range")
	}

	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return vals[idx[a]] > vals[idx[b]]
	})
	return idx[:k], nil
}

// Matrix assembles the named columns into an n×p dense matrix, in the
// given column order.
func (t Table) Matrix(names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, errors.NewModelError("dataset.Matrix", "no columns requested", errors.ErrEmptyData)
	}
	n := t.NRows()
	m := mat.NewDense(n, len(names), nil)
	for j, name := range names {
		vals, ok := t.cols[name]
		if !ok {
			return nil, errors.NewValueError("dataset.Matrix", "unknown column "+name)
		}
		for i := 0; i < n; i++ {
			m.Set(i, j, vals[i])
		}
	}
	return m, nil
}

// Vector returns the named column as a dense vector.
func (t Table) Vector(name string) (*mat.VecDense, error) {
	vals, ok := t.cols[name]
	if !ok {
		return nil, errors.NewValueError("dataset.Vector", "unknown column "+name)
	}
	return mat.NewVecDense(len(vals), append([]float64(nil), vals...)), nil
}

func (t Table) clone() Table {
	out := Table{
		stations: append([]string(nil), t.stations...),
		names:    append([]string(nil), t.names...),
		cols:     make(map[string][]float64, len(t.cols)),
	}
	for name, vals := range t.cols {
		out.cols[name] = append([]float64(nil), vals...)
	}
	return out
}

func (t Table) hasName(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}
