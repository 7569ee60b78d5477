package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"cyclestat/pkg/errors"
)

// LoadStations reads the station attribute CSV at path, drops the rows of
// the excluded stations, and returns the table.
//
// The file must carry the exact 14-column header of Schema. A missing
// file, a header mismatch, or missing values in any column produce a
// LoadError.
func LoadStations(path string, exclude ...string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, errors.NewLoadError(path, "cannot open file", err)
	}
	defer f.Close()

	return readStations(f, path, exclude)
}

// ReadStations reads the station attribute CSV from r. See LoadStations.
func ReadStations(r io.Reader, exclude ...string) (Table, error) {
	return readStations(r, "stream", exclude)
}

func readStations(r io.Reader, origin string, exclude []string) (Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithTypes(columnTypes()),
	)
	if df.Err != nil {
		return Table{}, errors.NewLoadError(origin, "cannot parse csv", df.Err)
	}

	if err := checkSchema(origin, df.Names()); err != nil {
		return Table{}, err
	}

	// 既知の不活性ステーションを除外する
	for _, id := range exclude {
		df = df.Filter(dataframe.F{
			Colname:    ColStationID,
			Comparator: series.Neq,
			Comparando: id,
		})
		if df.Err != nil {
			return Table{}, errors.NewLoadError(origin, "cannot filter excluded station "+id, df.Err)
		}
	}
	if df.Nrow() == 0 {
		return Table{}, errors.NewLoadError(origin, "no rows left after exclusion", nil)
	}

	stations := df.Col(ColStationID).Records()
	for i, id := range stations {
		if id == "" {
			return Table{}, errors.NewLoadError(origin, fmt.Sprintf("empty station identifier at row %d", i+1), nil)
		}
	}

	names := Schema()[1:]
	cols := make(map[string][]float64, len(names))
	for _, name := range names {
		s := df.Col(name)
		if s.HasNaN() {
			return Table{}, errors.NewLoadError(origin, "missing values in column "+name, nil)
		}
		cols[name] = s.Float()
	}

	return NewTable(stations, names, cols)
}

func columnTypes() map[string]series.Type {
	types := map[string]series.Type{
		ColStationID:   series.String,
		ColTrips:       series.Int,
		ColTransitFlag: series.Int,
	}
	for _, name := range Schema()[2:] {
		if name == ColTransitFlag {
			continue
		}
		types[name] = series.Float
	}
	return types
}

func checkSchema(origin string, got []string) error {
	want := Schema()
	if len(got) != len(want) {
		return errors.NewLoadError(origin,
			fmt.Sprintf("header mismatch: expected %d columns, got %d", len(want), len(got)), nil)
	}
	for i, name := range want {
		if got[i] != name {
			return errors.NewLoadError(origin,
				fmt.Sprintf("header mismatch: expected %q at column %d, got %q", name, i+1, got[i]), nil)
		}
	}
	return nil
}
