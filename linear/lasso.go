package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"cyclestat/pkg/errors"
)

// Defaults for the coordinate descent solver and the lambda path.
const (
	DefaultMaxIter     = 1000
	DefaultTol         = 1e-7
	DefaultNLambda     = 100
	DefaultLambdaRatio = 1e-4
)

// Lasso is an L1-penalized least squares estimator solved by cyclic
// coordinate descent. It minimizes
//
//	(1/(2n)) * Σᵢ(yᵢ - Σⱼxᵢⱼβⱼ)² + λ * Σⱼ|βⱼ|
//
// The solver expects X columns standardized to unit population variance
// and y centered, so no intercept is estimated.
type Lasso struct {
	// Lambda is the L1 penalty strength.
	Lambda float64

	// MaxIter caps the number of full coordinate sweeps.
	MaxIter int

	// Tol stops the sweeps once the largest coefficient update in a
	// full pass falls below it.
	Tol float64

	// WarmStart reuses the current coefficients as the starting point
	// of the next Fit call. Used along the lambda path.
	WarmStart bool

	coef      []float64
	nIter     int
	converged bool
	fitted    bool
}

// NewLasso returns a Lasso solver with default iteration settings.
func NewLasso(lambda float64) *Lasso {
	return &Lasso{
		Lambda:  lambda,
		MaxIter: DefaultMaxIter,
		Tol:     DefaultTol,
	}
}

// Fit runs cyclic coordinate descent on the standardized design matrix X
// and the centered response y. Hitting MaxIter raises a
// ConvergenceWarning through the warning channel instead of failing.
func (l *Lasso) Fit(X mat.Matrix, y []float64) (err error) {
	defer errors.Recover(&err, "Lasso.Fit")

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("Lasso.Fit", "empty design matrix", errors.ErrEmptyData)
	}
	if len(y) != n {
		return errors.NewDimensionError("Lasso.Fit", n, len(y), 0)
	}
	if l.Lambda < 0 {
		return errors.NewValueError("Lasso.Fit", "lambda must be non-negative")
	}
	if l.MaxIter <= 0 {
		return errors.NewValueError("Lasso.Fit", "max iterations must be positive")
	}

	// Column-major copy keeps the inner loops on contiguous slices.
	cols := make([][]float64, p)
	for j := 0; j < p; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = X.At(i, j)
		}
		cols[j] = col
	}

	beta := make([]float64, p)
	if l.WarmStart && len(l.coef) == p {
		copy(beta, l.coef)
	}

	// r carries the full residual y - Xβ across sweeps.
	r := make([]float64, n)
	copy(r, y)
	for j, b := range beta {
		if b == 0 {
			continue
		}
		for i, v := range cols[j] {
			r[i] -= v * b
		}
	}

	nf := float64(n)
	l.converged = false
	l.nIter = 0
	for sweep := 0; sweep < l.MaxIter; sweep++ {
		l.nIter = sweep + 1
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			// With unit-variance columns the coordinate update reduces
			// to a soft threshold of z = (1/n)·xⱼᵀr + βⱼ.
			z := floats.Dot(cols[j], r)/nf + beta[j]
			next := softThreshold(z, l.Lambda)
			if next == beta[j] {
				continue
			}
			delta := next - beta[j]
			for i, v := range cols[j] {
				r[i] -= v * delta
			}
			beta[j] = next
			if d := math.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < l.Tol {
			l.converged = true
			break
		}
	}

	if !l.converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.MaxIter,
			"coordinate descent hit the sweep limit"))
	}

	l.coef = beta
	l.fitted = true
	return nil
}

// Coef returns the fitted coefficients on the standardized scale.
func (l *Lasso) Coef() ([]float64, error) {
	if !l.fitted {
		return nil, errors.NewNotFittedError("Lasso", "Coef")
	}
	return append([]float64(nil), l.coef...), nil
}

// Predict returns Xβ for a standardized design matrix. The caller adds
// back whatever response offset was removed before fitting.
func (l *Lasso) Predict(X mat.Matrix) ([]float64, error) {
	if !l.fitted {
		return nil, errors.NewNotFittedError("Lasso", "Predict")
	}
	n, p := X.Dims()
	if p != len(l.coef) {
		return nil, errors.NewDimensionError("Lasso.Predict", len(l.coef), p, 1)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < p; j++ {
			s += X.At(i, j) * l.coef[j]
		}
		out[i] = s
	}
	return out, nil
}

// NIter reports how many coordinate sweeps the last Fit ran.
func (l *Lasso) NIter() int { return l.nIter }

// Converged reports whether the last Fit met the tolerance.
func (l *Lasso) Converged() bool { return l.converged }

// softThreshold is the proximal operator of the L1 penalty,
// S(z, λ) = sign(z)·max(|z|-λ, 0).
func softThreshold(z, lambda float64) float64 {
	switch {
	case z > lambda:
		return z - lambda
	case z < -lambda:
		return z + lambda
	default:
		return 0
	}
}

// LambdaGrid builds a descending log-spaced penalty path of nlambda
// values. The largest value is the smallest penalty that zeroes every
// coefficient, λmax = maxⱼ|(1/n)·xⱼᵀy|, and the smallest is ratio·λmax.
// X must be standardized and y centered, matching Lasso.Fit.
func LambdaGrid(X mat.Matrix, y []float64, nlambda int, ratio float64) ([]float64, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("linear.LambdaGrid", "empty design matrix", errors.ErrEmptyData)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("linear.LambdaGrid", n, len(y), 0)
	}
	if nlambda < 2 {
		return nil, errors.NewValueError("linear.LambdaGrid", "nlambda must be at least 2")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.NewValueError("linear.LambdaGrid", "ratio must be in (0, 1)")
	}

	lambdaMax := 0.0
	for j := 0; j < p; j++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += X.At(i, j) * y[i]
		}
		if a := math.Abs(s) / float64(n); a > lambdaMax {
			lambdaMax = a
		}
	}
	if lambdaMax == 0 {
		return nil, errors.NewValueError("linear.LambdaGrid", "response has no correlation with any predictor")
	}

	grid := make([]float64, nlambda)
	logMax := math.Log(lambdaMax)
	logMin := math.Log(lambdaMax * ratio)
	step := (logMin - logMax) / float64(nlambda-1)
	for i := range grid {
		grid[i] = math.Exp(logMax + float64(i)*step)
	}
	// Pin the endpoints exactly.
	grid[0] = lambdaMax
	grid[nlambda-1] = lambdaMax * ratio
	return grid, nil
}
