package linear

import (
	"gonum.org/v1/gonum/mat"

	"cyclestat/metrics"
	"cyclestat/pkg/errors"
)

// Actions recorded in a stepwise trace.
const (
	StepStart = "start"
	StepDrop  = "drop"
	StepAdd   = "add"
)

// StepwiseStep is one move of the search.
type StepwiseStep struct {
	// Action is StepStart for the initial model, then StepDrop or
	// StepAdd. Term is empty on the start row.
	Action string
	Term   string
	AIC    float64
	// Terms is the model after the move, in its working order.
	Terms []string
}

// StepwiseResult is the final model of a stepwise search with its trace.
type StepwiseResult struct {
	Terms   []string
	AIC     float64
	Summary *FitSummary
	Steps   []StepwiseStep
}

// StepwiseAIC runs a bidirectional stepwise search over the candidate
// predictors. Every iteration evaluates dropping each current term (in
// working order) and adding each unused candidate (in candidate order),
// applies the move with the lowest AIC when it beats the current model,
// and stops otherwise. Ties go to the move evaluated first. Candidate
// models with a singular design are skipped.
//
// X holds one column per candidate, in candidates order. start lists the
// initial model terms and must be a subset of candidates.
func StepwiseAIC(X, y mat.Matrix, candidates []string, start []string) (*StepwiseResult, error) {
	n, p := X.Dims()
	if p != len(candidates) {
		return nil, errors.NewDimensionError("linear.StepwiseAIC", len(candidates), p, 1)
	}
	if yr, _ := y.Dims(); yr != n {
		return nil, errors.NewDimensionError("linear.StepwiseAIC", n, yr, 0)
	}

	colIdx := make(map[string]int, len(candidates))
	for j, name := range candidates {
		colIdx[name] = j
	}
	for _, name := range start {
		if _, ok := colIdx[name]; !ok {
			return nil, errors.NewValueError("linear.StepwiseAIC", "start term "+name+" is not a candidate")
		}
	}

	fitAIC := func(terms []string) (float64, error) {
		if len(terms) == 0 {
			return interceptOnlyAIC(y)
		}
		sub := subsetColumns(X, terms, colIdx)
		ols := NewOLS(terms)
		if err := ols.Fit(sub, y); err != nil {
			return 0, err
		}
		sum, err := ols.Summary()
		if err != nil {
			return 0, err
		}
		return sum.AIC, nil
	}

	current := append([]string(nil), start...)
	currentAIC, err := fitAIC(current)
	if err != nil {
		return nil, err
	}

	steps := []StepwiseStep{{
		Action: StepStart,
		AIC:    currentAIC,
		Terms:  append([]string(nil), current...),
	}}

	for {
		bestAIC := currentAIC
		var bestAction, bestTerm string
		var bestTerms []string

		consider := func(action, term string, terms []string) error {
			aic, err := fitAIC(terms)
			if err != nil {
				var sing *errors.SingularityError
				if errors.As(err, &sing) {
					return nil
				}
				return err
			}
			// Strict improvement keeps the first-evaluated move on ties.
			if aic < bestAIC {
				bestAIC = aic
				bestAction = action
				bestTerm = term
				bestTerms = terms
			}
			return nil
		}

		for i, term := range current {
			trimmed := make([]string, 0, len(current)-1)
			trimmed = append(trimmed, current[:i]...)
			trimmed = append(trimmed, current[i+1:]...)
			if err := consider(StepDrop, term, trimmed); err != nil {
				return nil, err
			}
		}
		for _, term := range candidates {
			if containsTerm(current, term) {
				continue
			}
			grown := make([]string, 0, len(current)+1)
			grown = append(grown, current...)
			grown = append(grown, term)
			if err := consider(StepAdd, term, grown); err != nil {
				return nil, err
			}
		}

		if bestTerms == nil {
			break
		}
		current = bestTerms
		currentAIC = bestAIC
		steps = append(steps, StepwiseStep{
			Action: bestAction,
			Term:   bestTerm,
			AIC:    bestAIC,
			Terms:  append([]string(nil), current...),
		})
	}

	if len(current) == 0 {
		return nil, errors.NewModelError("linear.StepwiseAIC",
			"search reduced the model to the intercept alone", nil)
	}

	final := NewOLS(current)
	if err := final.Fit(subsetColumns(X, current, colIdx), y); err != nil {
		return nil, err
	}
	summary, err := final.Summary()
	if err != nil {
		return nil, err
	}

	return &StepwiseResult{
		Terms:   current,
		AIC:     currentAIC,
		Summary: summary,
		Steps:   steps,
	}, nil
}

func containsTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

func subsetColumns(X mat.Matrix, terms []string, colIdx map[string]int) *mat.Dense {
	n, _ := X.Dims()
	out := mat.NewDense(n, len(terms), nil)
	for jj, term := range terms {
		j := colIdx[term]
		for i := 0; i < n; i++ {
			out.Set(i, jj, X.At(i, j))
		}
	}
	return out
}

// interceptOnlyAIC scores the empty candidate model, whose RSS is the
// total sum of squares around the response mean.
func interceptOnlyAIC(y mat.Matrix) (float64, error) {
	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.NewModelError("linear.StepwiseAIC", "empty response", errors.ErrEmptyData)
	}
	mean := 0.0
	for i := 0; i < n; i++ {
		mean += y.At(i, 0)
	}
	mean /= float64(n)

	tss := 0.0
	for i := 0; i < n; i++ {
		d := y.At(i, 0) - mean
		tss += d * d
	}
	return metrics.AIC(tss, n, 1)
}
