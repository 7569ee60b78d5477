// Package report renders the analysis artifacts: fixed-width coefficient
// and collinearity tables, one XLSX workbook with the same content, and
// the diagnostic figures. It is pure presentation; every input is
// consumed read-only and each writer returns the paths it produced.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"cyclestat/diagnostics"
	"cyclestat/linear"
	"cyclestat/pkg/errors"
)

// Fit couples a fitted model with its pipeline identity for rendering.
type Fit struct {
	// ID is the fit letter ("A", "B", "C") used in artifact names.
	ID string

	// Label is the human description printed on tables and figures.
	Label string

	Summary *linear.FitSummary

	// Steps is the stepwise trace, nil for the lasso-informed fit.
	Steps []linear.StepwiseStep
}

// Bundle is everything the reporter renders for one run.
type Bundle struct {
	// Stations and the raw and log-scale response over the analysis rows.
	Stations []string
	Trips    []float64
	LogTrips []float64

	// Candidates names the candidate predictors and X carries their
	// columns in the same order.
	Candidates []string
	X          *mat.Dense

	// Spearman is the rank correlation matrix over the candidates, and
	// Pairs the flagged high-correlation pairs.
	Spearman *mat.SymDense
	Pairs    []diagnostics.CorrelatedPair

	Selection *linear.Selection

	// Trim is the VIF reduction applied to the lasso-informed fit and
	// VIFThreshold the cutoff that drove it.
	Trim         *diagnostics.TrimResult
	VIFThreshold float64

	Fits []Fit
}

// Options configures rendering.
type Options struct {
	Decimals      int
	HistogramBins int
}

// Stars returns the R-style significance code for a p-value.
func Stars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	case p < 0.1:
		return "."
	default:
		return ""
	}
}

const starsLegend = "Signif. codes: 0 '***' 0.001 '**' 0.01 '*' 0.05 '.' 0.1 ' ' 1"

// FormatCoefficients renders one fit as a fixed-width table with
// significance stars and a summary footer.
func FormatCoefficients(s *linear.FitSummary, label string, decimals int) string {
	nameW := len(linear.InterceptTerm)
	for _, c := range s.Coefficients {
		if len(c.Term) > nameW {
			nameW = len(c.Term)
		}
	}
	numW := decimals + 8

	var b strings.Builder
	if label != "" {
		fmt.Fprintf(&b, "%s\n\n", label)
	}
	fmt.Fprintf(&b, "%-*s %*s %*s %*s %*s\n",
		nameW, "term", numW, "estimate", numW, "std_error", numW, "t_value", numW, "p_value")

	row := func(c linear.Coefficient) {
		fmt.Fprintf(&b, "%-*s %*.*f %*.*f %*.*f %*.*g %s\n",
			nameW, c.Term,
			numW, decimals, c.Estimate,
			numW, decimals, c.StdErr,
			numW, decimals, c.TValue,
			numW, decimals, c.PValue,
			Stars(c.PValue))
	}
	row(s.Intercept)
	for _, c := range s.Coefficients {
		row(c)
	}

	fmt.Fprintf(&b, "---\n%s\n", starsLegend)
	fmt.Fprintf(&b, "n = %d, R-squared = %.*f, adj. R-squared = %.*f, sigma = %.*f, AIC = %.*f\n",
		s.N, decimals, s.R2, decimals, s.AdjR2, decimals, s.Sigma, decimals, s.AIC)
	return b.String()
}

// FormatVIF renders the collinearity trim: final factors for the kept
// predictors plus the removal history.
func FormatVIF(tr *diagnostics.TrimResult, threshold float64, decimals int) string {
	nameW := len("term")
	for _, t := range tr.Kept {
		if len(t) > nameW {
			nameW = len(t)
		}
	}
	for _, r := range tr.Removed {
		if len(r.Term) > nameW {
			nameW = len(r.Term)
		}
	}
	numW := decimals + 8

	var b strings.Builder
	fmt.Fprintf(&b, "Variance inflation factors (threshold %.*f)\n\n", decimals, threshold)
	fmt.Fprintf(&b, "%-*s %*s\n", nameW, "term", numW, "vif")
	for i, t := range tr.Kept {
		fmt.Fprintf(&b, "%-*s %*.*f\n", nameW, t, numW, decimals, tr.VIFs[i])
	}
	if len(tr.Removed) == 0 {
		fmt.Fprintf(&b, "\nno predictor exceeded the threshold\n")
	} else {
		fmt.Fprintf(&b, "\nremoved in order:\n")
		for _, r := range tr.Removed {
			fmt.Fprintf(&b, "%-*s %*.*f\n", nameW, r.Term, numW, decimals, r.VIF)
		}
	}
	return b.String()
}

// FormatStepwiseTrace renders the move-by-move search history of a
// stepwise fit.
func FormatStepwiseTrace(steps []linear.StepwiseStep, decimals int) string {
	nameW := len("term")
	for _, s := range steps {
		if len(s.Term) > nameW {
			nameW = len(s.Term)
		}
	}
	numW := decimals + 8

	var b strings.Builder
	fmt.Fprintf(&b, "%4s %-6s %-*s %*s %s\n", "step", "action", nameW, "term", numW, "aic", "terms")
	for i, s := range steps {
		fmt.Fprintf(&b, "%4d %-6s %-*s %*.*f %d\n",
			i, s.Action, nameW, s.Term, numW, decimals, s.AIC, len(s.Terms))
	}
	return b.String()
}

// WriteTables writes the per-fit coefficient tables and the VIF table
// under dir and returns the written paths.
func WriteTables(dir string, b *Bundle, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "report: create %s", dir)
	}

	var paths []string
	write := func(name, content string) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "report: write %s", path)
		}
		paths = append(paths, path)
		return nil
	}

	for _, fit := range b.Fits {
		content := FormatCoefficients(fit.Summary, fit.Label, opts.Decimals)
		if len(fit.Steps) > 0 {
			content += "\n" + FormatStepwiseTrace(fit.Steps, opts.Decimals)
		}
		if err := write("coefficients_"+fit.ID+".txt", content); err != nil {
			return nil, err
		}
	}

	if b.Trim != nil {
		threshold := b.VIFThreshold
		if threshold == 0 {
			threshold = diagnostics.DefaultVIFThreshold
		}
		if err := write("vif.txt", FormatVIF(b.Trim, threshold, opts.Decimals)); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
