package linear

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cyclestat/pkg/errors"
	"cyclestat/preprocessing"
)

// SelectionRule picks how the cross-validated penalty is chosen.
type SelectionRule string

const (
	// RuleOneSE takes the largest penalty whose mean CV error stays
	// within one standard error of the minimum.
	RuleOneSE SelectionRule = "1se"
	// RuleMin takes the penalty with the smallest mean CV error.
	RuleMin SelectionRule = "min"
)

// SelectionOptions configures the cross-validated lasso reduction.
type SelectionOptions struct {
	Folds       int
	Shuffle     bool
	Seed        uint64
	NLambda     int
	LambdaRatio float64
	Rule        SelectionRule
}

// DefaultSelectionOptions mirrors the defaults of cv.glmnet: 10 folds
// without shuffling, a 100-step path, and the one standard error rule.
func DefaultSelectionOptions() SelectionOptions {
	return SelectionOptions{
		Folds:       10,
		NLambda:     DefaultNLambda,
		LambdaRatio: DefaultLambdaRatio,
		Rule:        RuleOneSE,
	}
}

// Selection records the outcome of the lasso feature reduction.
type Selection struct {
	// Rule and Lambda are the applied selection rule and the penalty it
	// picked.
	Rule   SelectionRule
	Lambda float64

	// CV holds the full cross-validation curve behind the choice.
	CV *CVResult

	// Terms lists the candidate predictors in design order and Coef the
	// standardized-scale coefficients of the final fit at Lambda.
	Terms []string
	Coef  []float64

	// Retained and Dropped partition Terms by whether the final
	// coefficient is exactly zero.
	Retained []string
	Dropped  []string

	// Converged reports whether the final coordinate descent met its
	// tolerance.
	Converged bool
}

// SelectFeatures runs the whole reduction: build the penalty path on the
// fully standardized data, score it by k-fold cross-validation, pick a
// penalty by the configured rule, and refit from a cold start on the
// full data. Predictors with exactly zero coefficients are dropped.
func SelectFeatures(X mat.Matrix, y []float64, terms []string, opts SelectionOptions) (*Selection, error) {
	n, p := X.Dims()
	if p != len(terms) {
		return nil, errors.NewDimensionError("linear.SelectFeatures", len(terms), p, 1)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("linear.SelectFeatures", n, len(y), 0)
	}
	switch opts.Rule {
	case RuleOneSE, RuleMin:
	default:
		return nil, errors.NewValueError("linear.SelectFeatures", "unknown selection rule "+string(opts.Rule))
	}

	scaler := preprocessing.NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}
	yMean := stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	grid, err := LambdaGrid(Xs, yc, opts.NLambda, opts.LambdaRatio)
	if err != nil {
		return nil, err
	}

	kf := NewKFold(opts.Folds, opts.Shuffle, opts.Seed)
	cv, err := CrossValidateLasso(X, y, grid, kf)
	if err != nil {
		return nil, err
	}

	lambda := cv.Lambda1SE
	if opts.Rule == RuleMin {
		lambda = cv.LambdaMin
	}

	lasso := NewLasso(lambda)
	if err := lasso.Fit(Xs, yc); err != nil {
		return nil, err
	}
	coef, err := lasso.Coef()
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Rule:      opts.Rule,
		Lambda:    lambda,
		CV:        cv,
		Terms:     append([]string(nil), terms...),
		Coef:      coef,
		Converged: lasso.Converged(),
	}
	for j, name := range terms {
		if coef[j] != 0 {
			sel.Retained = append(sel.Retained, name)
		} else {
			sel.Dropped = append(sel.Dropped, name)
		}
	}
	if len(sel.Retained) == 0 {
		return nil, errors.NewModelError("linear.SelectFeatures",
			"penalty zeroed every predictor; relax the rule or the lambda grid", nil)
	}
	return sel, nil
}
