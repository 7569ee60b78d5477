package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"cyclestat/pkg/errors"
)

// WorkbookName is the XLSX artifact written by WriteWorkbook.
const WorkbookName = "cyclestat.xlsx"

// WriteWorkbook renders the whole bundle as one workbook: a run summary
// sheet, one sheet per fit, the VIF trim, and the rank correlation
// matrix. It returns the written path.
func WriteWorkbook(dir string, b *Bundle) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "report: create %s", dir)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, b); err != nil {
		return "", err
	}
	for _, fit := range b.Fits {
		if err := writeFitSheet(f, fit); err != nil {
			return "", err
		}
	}
	if b.Trim != nil {
		if err := writeVIFSheet(f, b); err != nil {
			return "", err
		}
	}
	if b.Spearman != nil {
		if err := writeCorrelationSheet(f, b); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, WorkbookName)
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "report: save %s", path)
	}
	return path, nil
}

func writeSummarySheet(f *excelize.File, b *Bundle) error {
	const sheet = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "report: rename summary sheet")
	}

	rows := [][]interface{}{
		{"stations", len(b.Stations)},
		{"candidate predictors", len(b.Candidates)},
	}
	if b.Selection != nil {
		rows = append(rows,
			[]interface{}{"selection rule", string(b.Selection.Rule)},
			[]interface{}{"lambda", b.Selection.Lambda},
			[]interface{}{"converged", b.Selection.Converged},
			[]interface{}{"retained", strings.Join(b.Selection.Retained, ", ")},
			[]interface{}{"dropped", strings.Join(b.Selection.Dropped, ", ")},
		)
	}
	for _, pair := range b.Pairs {
		rows = append(rows, []interface{}{
			"high |rho|",
			fmt.Sprintf("%s ~ %s", pair.TermA, pair.TermB),
			pair.Rho,
		})
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeFitSheet(f *excelize.File, fit Fit) error {
	sheet := "Fit " + fit.ID
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "report: create sheet %s", sheet)
	}

	rows := [][]interface{}{
		{fit.Label},
		{"term", "estimate", "std_error", "t_value", "p_value", "signif"},
	}
	coefRow := func(term string, est, se, tv, pv float64) []interface{} {
		return []interface{}{term, est, se, tv, pv, Stars(pv)}
	}
	s := fit.Summary
	rows = append(rows, coefRow(s.Intercept.Term, s.Intercept.Estimate, s.Intercept.StdErr, s.Intercept.TValue, s.Intercept.PValue))
	for _, c := range s.Coefficients {
		rows = append(rows, coefRow(c.Term, c.Estimate, c.StdErr, c.TValue, c.PValue))
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"n", s.N},
		[]interface{}{"r_squared", s.R2},
		[]interface{}{"adj_r_squared", s.AdjR2},
		[]interface{}{"sigma", s.Sigma},
		[]interface{}{"aic", s.AIC},
	)

	if len(fit.Steps) > 0 {
		rows = append(rows,
			[]interface{}{},
			[]interface{}{"step", "action", "term", "aic", "terms"},
		)
		for i, step := range fit.Steps {
			rows = append(rows, []interface{}{i, step.Action, step.Term, step.AIC, len(step.Terms)})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeVIFSheet(f *excelize.File, b *Bundle) error {
	const sheet = "VIF"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "report: create sheet %s", sheet)
	}

	rows := [][]interface{}{
		{"term", "vif"},
	}
	for i, t := range b.Trim.Kept {
		rows = append(rows, []interface{}{t, b.Trim.VIFs[i]})
	}
	if len(b.Trim.Removed) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"removed", "vif"})
		for _, r := range b.Trim.Removed {
			rows = append(rows, []interface{}{r.Term, r.VIF})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeCorrelationSheet(f *excelize.File, b *Bundle) error {
	const sheet = "Correlation"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "report: create sheet %s", sheet)
	}

	header := make([]interface{}, 0, len(b.Candidates)+1)
	header = append(header, "")
	for _, t := range b.Candidates {
		header = append(header, t)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, t := range b.Candidates {
		row := make([]interface{}, 0, len(b.Candidates)+1)
		row = append(row, t)
		for j := range b.Candidates {
			row = append(row, b.Spearman.At(i, j))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values left to right starting at column A of the given
// 1-based row.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return errors.Wrap(err, "report: column name")
		}
		if err := f.SetCellValue(sheet, col+strconv.Itoa(row), v); err != nil {
			return errors.Wrapf(err, "report: set cell %s%d on %s", col, row, sheet)
		}
	}
	return nil
}
