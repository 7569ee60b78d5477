// Package analysis runs the end-to-end station ridership study: load the
// attribute table, derive the log response, reduce the candidate set by
// cross-validated lasso, fit the three reported OLS variants, and render
// the artifacts. The pipeline is one linear pass over the table; the
// first failing stage halts the run and its typed error is returned
// as-is.
package analysis

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"cyclestat/config"
	"cyclestat/dataset"
	"cyclestat/diagnostics"
	"cyclestat/linear"
	"cyclestat/pkg/errors"
	"cyclestat/pkg/log"
	"cyclestat/report"
)

// Absolute Spearman correlation at which a candidate pair is flagged in
// the run summary.
const highRhoThreshold = 0.8

// Agreement compares the two stepwise fits structurally. The sets are
// reported side by side, never asserted equal: divergence under outlier
// trimming is a finding, not a failure.
type Agreement struct {
	// Shared lists the predictors both fits kept, in Fit B order.
	Shared []string
	// OnlyB and OnlyC are the predictors unique to each fit.
	OnlyB []string
	OnlyC []string
}

// Result aggregates everything one run produces.
type Result struct {
	// Rows is the station count after exclusion; TrimmedRows the count
	// the outlier-trimmed fit used.
	Rows        int
	TrimmedRows int

	// Candidates is the candidate predictor list the run was configured
	// with, in design order.
	Candidates []string

	// Selection is the cross-validated lasso reduction.
	Selection *linear.Selection

	// Spearman is the rank correlation matrix over the candidates and
	// Correlated the pairs at or above the reporting threshold.
	Spearman   *mat.SymDense
	Correlated []diagnostics.CorrelatedPair

	// Trim and FitA are the collinearity-trimmed lasso-informed fit.
	Trim *diagnostics.TrimResult
	FitA *linear.FitSummary

	// FitB is the stepwise search on all rows, FitC the same search
	// with the top-ridership stations removed.
	FitB *linear.StepwiseResult
	FitC *linear.StepwiseResult

	Agreement Agreement

	// Artifacts lists the rendered report paths.
	Artifacts []string
}

// Runner executes the analysis pipeline for one configuration.
type Runner struct {
	cfg    *config.Config
	logger log.Logger
}

// NewRunner builds a Runner. A nil logger falls back to the process
// default.
func NewRunner(cfg *config.Config, logger log.Logger) *Runner {
	if logger == nil {
		logger = log.GetLoggerWithName("analysis")
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes every stage in order and returns the aggregated result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r.logger.Info("starting analysis",
		"input", r.cfg.Input,
		log.PredictorsKey, len(r.cfg.Predictors),
		log.FoldsKey, r.cfg.CV.Folds,
		log.RuleKey, r.cfg.Lasso.Rule,
	)

	raw, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	full, err := r.transform(ctx, raw)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rows:       full.NRows(),
		Candidates: append([]string(nil), r.cfg.Predictors...),
	}

	X, y, err := r.reduce(ctx, full, res)
	if err != nil {
		return nil, err
	}

	if err := r.fitLassoInformed(ctx, full, y, res); err != nil {
		return nil, err
	}
	if err := r.fitStepwise(ctx, X, y, res); err != nil {
		return nil, err
	}
	if err := r.fitTrimmed(ctx, raw, res); err != nil {
		return nil, err
	}
	res.Agreement = compareTerms(res.FitB.Terms, res.FitC.Terms)

	if err := r.render(ctx, full, X, res); err != nil {
		return nil, err
	}

	r.logger.Info("analysis finished",
		log.RowsKey, res.Rows,
		"artifacts", len(res.Artifacts),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// load reads the station file and applies the exclusion list.
func (r *Runner) load(ctx context.Context) (dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Table{}, errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageLoad)

	t, err := dataset.LoadStations(r.cfg.Input, r.cfg.Exclude...)
	if err != nil {
		stageLog.Error("loading stations failed", err)
		return dataset.Table{}, err
	}

	stageLog.Info("stations loaded",
		log.RowsKey, t.NRows(),
		log.ExcludedKey, len(r.cfg.Exclude),
	)
	return t, nil
}

// transform derives the log10 ridership response.
func (r *Runner) transform(ctx context.Context, raw dataset.Table) (dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Table{}, errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageTransform)

	t, err := dataset.WithLogTrips(raw)
	if err != nil {
		stageLog.Error("log transform failed", err)
		return dataset.Table{}, err
	}

	stageLog.Info("response derived", log.RowsKey, t.NRows())
	return t, nil
}

// reduce runs the cross-validated lasso over the candidates and the
// collinearity cross-checks. It returns the candidate design matrix and
// the response for the downstream fits.
func (r *Runner) reduce(ctx context.Context, t dataset.Table, res *Result) (*mat.Dense, *mat.VecDense, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageReduce)

	X, err := t.Matrix(r.cfg.Predictors)
	if err != nil {
		stageLog.Error("assembling candidate matrix failed", err)
		return nil, nil, err
	}
	y, err := t.Column(dataset.ColLogTrips)
	if err != nil {
		stageLog.Error("reading response failed", err)
		return nil, nil, err
	}

	opts := linear.SelectionOptions{
		Folds:       r.cfg.CV.Folds,
		Shuffle:     r.cfg.CV.Shuffle,
		Seed:        uint64(r.cfg.CV.Seed),
		NLambda:     r.cfg.Lasso.NLambda,
		LambdaRatio: r.cfg.Lasso.LambdaRatio,
		Rule:        linear.SelectionRule(r.cfg.Lasso.Rule),
	}
	sel, err := linear.SelectFeatures(X, y, r.cfg.Predictors, opts)
	if err != nil {
		stageLog.Error("feature reduction failed", err)
		return nil, nil, err
	}
	res.Selection = sel

	spearman, err := diagnostics.SpearmanMatrix(X)
	if err != nil {
		stageLog.Error("rank correlation failed", err)
		return nil, nil, err
	}
	res.Spearman = spearman
	pairs, err := diagnostics.HighlyCorrelated(spearman, r.cfg.Predictors, highRhoThreshold)
	if err != nil {
		stageLog.Error("correlation scan failed", err)
		return nil, nil, err
	}
	res.Correlated = pairs

	stageLog.Info("penalty selected",
		log.LambdaKey, sel.Lambda,
		log.RuleKey, string(sel.Rule),
		log.FoldsKey, r.cfg.CV.Folds,
		log.SeedKey, r.cfg.CV.Seed,
		log.PredictorsKey, len(sel.Retained),
		"dropped", len(sel.Dropped),
	)

	yVec, err := t.Vector(dataset.ColLogTrips)
	if err != nil {
		return nil, nil, err
	}
	return X, yVec, nil
}

// fitLassoInformed trims the retained set by VIF and fits OLS on the
// survivors.
func (r *Runner) fitLassoInformed(ctx context.Context, t dataset.Table, y *mat.VecDense, res *Result) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageFit, log.FitKey, "A")

	Xr, err := t.Matrix(res.Selection.Retained)
	if err != nil {
		stageLog.Error("assembling retained matrix failed", err)
		return err
	}
	trim, err := diagnostics.TrimByVIF(Xr, res.Selection.Retained, r.cfg.VIFThreshold)
	if err != nil {
		stageLog.Error("collinearity trim failed", err)
		return err
	}
	res.Trim = trim

	Xa, err := t.Matrix(trim.Kept)
	if err != nil {
		return err
	}
	ols := linear.NewOLS(trim.Kept)
	if err := ols.Fit(Xa, y); err != nil {
		stageLog.Error("least squares failed", err)
		return err
	}
	summary, err := ols.Summary()
	if err != nil {
		return err
	}
	res.FitA = summary

	stageLog.Info("fit complete",
		log.PredictorsKey, len(trim.Kept),
		"vif_removed", len(trim.Removed),
		log.R2Key, summary.R2,
		log.AICKey, summary.AIC,
	)
	return nil
}

// fitStepwise runs the bidirectional search from the full candidate
// model on all rows.
func (r *Runner) fitStepwise(ctx context.Context, X *mat.Dense, y *mat.VecDense, res *Result) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageFit, log.FitKey, "B")

	sw, err := linear.StepwiseAIC(X, y, res.Candidates, res.Candidates)
	if err != nil {
		stageLog.Error("stepwise search failed", err)
		return err
	}
	res.FitB = sw

	stageLog.Info("fit complete",
		log.PredictorsKey, len(sw.Terms),
		"steps", len(sw.Steps)-1,
		log.R2Key, sw.Summary.R2,
		log.AICKey, sw.AIC,
	)
	return nil
}

// fitTrimmed removes the highest-ridership stations from the raw table,
// re-derives the response over the survivors, and repeats the stepwise
// search.
func (r *Runner) fitTrimmed(ctx context.Context, raw dataset.Table, res *Result) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageFit, log.FitKey, "C")

	top, err := raw.TopRowsBy(dataset.ColTrips, r.cfg.OutlierTrim)
	if err != nil {
		stageLog.Error("ranking stations failed", err)
		return err
	}
	trimmed, err := raw.DropRows(top)
	if err != nil {
		stageLog.Error("trimming rows failed", err)
		return err
	}
	tc, err := dataset.WithLogTrips(trimmed)
	if err != nil {
		stageLog.Error("log transform failed", err)
		return err
	}
	res.TrimmedRows = tc.NRows()

	Xc, err := tc.Matrix(res.Candidates)
	if err != nil {
		return err
	}
	yc, err := tc.Vector(dataset.ColLogTrips)
	if err != nil {
		return err
	}
	sw, err := linear.StepwiseAIC(Xc, yc, res.Candidates, res.Candidates)
	if err != nil {
		stageLog.Error("stepwise search failed", err)
		return err
	}
	res.FitC = sw

	stageLog.Info("fit complete",
		log.RowsKey, tc.NRows(),
		log.ExcludedKey, len(top),
		log.PredictorsKey, len(sw.Terms),
		log.R2Key, sw.Summary.R2,
		log.AICKey, sw.AIC,
	)
	return nil
}

// render writes every artifact under the configured output directory.
func (r *Runner) render(ctx context.Context, t dataset.Table, X *mat.Dense, res *Result) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	stageLog := r.logger.With(log.StageKey, log.StageReport)

	trips, err := t.Column(dataset.ColTrips)
	if err != nil {
		return err
	}
	logTrips, err := t.Column(dataset.ColLogTrips)
	if err != nil {
		return err
	}

	bundle := &report.Bundle{
		Stations:     t.Stations(),
		Trips:        trips,
		LogTrips:     logTrips,
		Candidates:   res.Candidates,
		X:            X,
		Spearman:     res.Spearman,
		Pairs:        res.Correlated,
		Selection:    res.Selection,
		Trim:         res.Trim,
		VIFThreshold: r.cfg.VIFThreshold,
		Fits: []report.Fit{
			{
				ID:      "A",
				Label:   "Fit A: OLS on the lasso-retained predictors after VIF trim",
				Summary: res.FitA,
			},
			{
				ID:      "B",
				Label:   "Fit B: bidirectional stepwise AIC from the full candidate model",
				Summary: res.FitB.Summary,
				Steps:   res.FitB.Steps,
			},
			{
				ID:      "C",
				Label:   "Fit C: stepwise AIC without the highest-ridership stations",
				Summary: res.FitC.Summary,
				Steps:   res.FitC.Steps,
			},
		},
	}

	paths, err := report.Render(r.cfg.OutputDir, bundle, report.Options{
		Decimals:      r.cfg.Report.Decimals,
		HistogramBins: r.cfg.Report.HistogramBins,
	})
	if err != nil {
		stageLog.Error("rendering artifacts failed", err)
		return err
	}
	res.Artifacts = paths

	for _, p := range paths {
		stageLog.Info("artifact written", log.ArtifactKey, p)
	}
	return nil
}

// compareTerms partitions two stepwise term sets into shared and
// exclusive predictors.
func compareTerms(b, c []string) Agreement {
	inB := make(map[string]bool, len(b))
	for _, t := range b {
		inB[t] = true
	}
	inC := make(map[string]bool, len(c))
	for _, t := range c {
		inC[t] = true
	}

	var ag Agreement
	for _, t := range b {
		if inC[t] {
			ag.Shared = append(ag.Shared, t)
		} else {
			ag.OnlyB = append(ag.OnlyB, t)
		}
	}
	for _, t := range c {
		if !inB[t] {
			ag.OnlyC = append(ag.OnlyC, t)
		}
	}
	return ag
}
