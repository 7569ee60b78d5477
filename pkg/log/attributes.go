// Standard attribute keys for the analysis pipeline. Every stage logs
// through these keys so a single run can be reconstructed from its log
// stream: which stage ran, over how many rows, with which penalty, and
// what each fit produced. Keys are hierarchical ("data.rows",
// "lasso.lambda") for structured filtering.

package log

// Pipeline stage context.
const (
	// StageKey identifies the pipeline stage emitting the record.
	// Standard values: "load", "transform", "reduce", "fit", "report".
	StageKey = "stage"

	// FitKey identifies which of the fitted model variants a record
	// belongs to: "A" (lasso-informed), "B" (stepwise), "C" (stepwise
	// without the top-ridership stations).
	FitKey = "fit.id"
)

// Data shape.
const (
	// RowsKey is the number of station rows in play at this stage.
	RowsKey = "data.rows"

	// PredictorsKey is the number of candidate or retained predictors.
	PredictorsKey = "data.predictors"

	// ExcludedKey counts rows removed by an exclusion or trim step.
	ExcludedKey = "data.excluded"
)

// Penalty selection.
const (
	// LambdaKey is the selected L1 penalty strength.
	LambdaKey = "lasso.lambda"

	// RuleKey is the penalty selection rule ("1se" or "min").
	RuleKey = "lasso.rule"

	// FoldsKey is the cross-validation fold count.
	FoldsKey = "cv.folds"

	// SeedKey is the RNG seed used for fold shuffling.
	SeedKey = "cv.seed"
)

// Fit summary metrics.
const (
	// R2Key is the coefficient of determination of a fit.
	R2Key = "fit.r2"

	// AICKey is the Akaike information criterion of a fit.
	AICKey = "fit.aic"
)

// Reporting.
const (
	// ArtifactKey is the path of a rendered table or figure.
	ArtifactKey = "report.artifact"

	// DurationMsKey records stage execution time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Standard stage values.
const (
	StageLoad      = "load"
	StageTransform = "transform"
	StageReduce    = "reduce"
	StageFit       = "fit"
	StageReport    = "report"
)
