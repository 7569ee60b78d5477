// Package cyclestat reproduces a cross-sectional regression study of
// bike share station ridership: which socio-demographic and built
// environment attributes of a station's catchment area explain its
// annual trip count.
//
// The analysis is a single deterministic pass over a fixed station
// table. It derives a log10 trip response, reduces eleven candidate
// predictors with a cross-validated lasso, fits three ordinary least
// squares variants (lasso-informed with a collinearity trim, stepwise
// AIC, and stepwise AIC without the busiest stations), and renders the
// coefficient tables, a workbook, and diagnostic figures.
//
// # Packages
//
//   - dataset: station CSV loading, schema checks, the log response
//   - preprocessing: column standardization for the penalized fit
//   - linear: OLS with inference, lasso with a cross-validated penalty
//     path, bidirectional stepwise AIC search
//   - metrics: MSE, R², adjusted R², AIC
//   - diagnostics: variance inflation factors, Spearman correlation
//   - report: text tables, XLSX workbook, PNG figures
//   - analysis: the staged pipeline tying the above together
//   - config: YAML run configuration
//   - pkg/errors, pkg/log: error taxonomy and structured logging
//
// # Quick Start
//
// Run the reference analysis from code:
//
//	cfg := config.Default()
//	runner := analysis.NewRunner(cfg, log.GetLoggerWithName("analysis"))
//	res, err := runner.Run(context.Background())
//	if err != nil {
//	    log.GetLogger().Error("analysis failed", err)
//	    os.Exit(1)
//	}
//	fmt.Println(res.Selection.Retained)
//
// or from the command line:
//
//	cyclestat --config analysis.yaml
//
// # Reproducibility
//
// A run is fully determined by its configuration file: fold assignment
// is fixed unless shuffling is enabled with an explicit seed, and no
// environment variables are consulted. Running twice with the same
// configuration yields identical penalties, retained predictor sets,
// and coefficient estimates.
package cyclestat
