// Package linear implements the regression machinery of the ridership
// analysis: ordinary least squares with inference statistics, an
// L1-penalized coordinate descent solver with a cross-validated penalty
// path, and bidirectional stepwise model search by AIC.
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"cyclestat/metrics"
	"cyclestat/pkg/errors"
)

// InterceptTerm is the display name of the constant term.
const InterceptTerm = "(Intercept)"

// Coefficient holds one fitted term with its inference statistics.
type Coefficient struct {
	Term     string
	Estimate float64
	StdErr   float64
	TValue   float64
	PValue   float64
}

// FitSummary carries the per-term estimates and the per-observation
// diagnostics of one least squares fit.
type FitSummary struct {
	// Terms lists the predictors in design order, intercept excluded.
	Terms []string

	// Intercept and Coefficients are the fitted terms; Coefficients
	// follows Terms order.
	Intercept    Coefficient
	Coefficients []Coefficient

	N   int
	P   int
	RSS float64

	// Sigma is the residual standard error, sqrt(RSS/(n-p-1)).
	Sigma float64

	R2    float64
	AdjR2 float64
	AIC   float64

	// Per-observation diagnostics, row order of the fitted data.
	Fitted       []float64
	Residuals    []float64
	Leverage     []float64
	StdResiduals []float64
	CooksD       []float64
}

// Coefficient returns the fitted coefficient for the named term, the
// intercept included, or false when the term is not in the model.
func (s *FitSummary) Coefficient(term string) (Coefficient, bool) {
	if term == InterceptTerm {
		return s.Intercept, true
	}
	for _, c := range s.Coefficients {
		if c.Term == term {
			return c, true
		}
	}
	return Coefficient{}, false
}

// OLS fits ordinary least squares with an intercept by QR decomposition
// and derives the usual inference statistics from (XᵀX)⁻¹.
type OLS struct {
	terms   []string
	fitted  bool
	summary *FitSummary
}

// NewOLS creates an estimator for the named predictors. The design
// matrix passed to Fit must carry the same columns in the same order.
func NewOLS(terms []string) *OLS {
	return &OLS{terms: append([]string(nil), terms...)}
}

// Fit estimates the model on the raw design matrix X (n×p, no intercept
// column) and response y (n×1). A rank-deficient design surfaces as a
// SingularityError.
func (m *OLS) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "OLS.Fit")

	n, p := X.Dims()
	yr, yc := y.Dims()
	if yr != n {
		return errors.NewDimensionError("OLS.Fit", n, yr, 0)
	}
	if yc != 1 {
		return errors.NewDimensionError("OLS.Fit", 1, yc, 1)
	}
	if p != len(m.terms) {
		return errors.NewDimensionError("OLS.Fit", len(m.terms), p, 1)
	}
	dof := n - p - 1
	if dof < 1 {
		return errors.NewModelError("OLS.Fit", "no residual degrees of freedom", nil)
	}

	// Design with a leading intercept column.
	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1.0)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, X.At(i, j))
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	coef := mat.NewDense(p+1, 1, nil)
	if solveErr := qr.SolveTo(coef, false, y); solveErr != nil {
		return errors.NewSingularityError("OLS.Fit", solveErr.Error())
	}
	if err := errors.CheckFinite("OLS.Fit", mat.Col(nil, 0, coef)); err != nil {
		return err
	}

	var xtx mat.Dense
	xtx.Mul(design.T(), design)
	var xtxInv mat.Dense
	if invErr := xtxInv.Inverse(&xtx); invErr != nil {
		return errors.NewSingularityError("OLS.Fit", invErr.Error())
	}

	fitted := make([]float64, n)
	resid := make([]float64, n)
	rss := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j <= p; j++ {
			pred += design.At(i, j) * coef.At(j, 0)
		}
		fitted[i] = pred
		resid[i] = y.At(i, 0) - pred
		rss += resid[i] * resid[i]
	}

	sigma2 := rss / float64(dof)
	sigma := math.Sqrt(sigma2)

	// Leverage hᵢ = xᵢᵀ(XᵀX)⁻¹xᵢ over rows of the intercept-augmented
	// design.
	leverage := make([]float64, n)
	for i := 0; i < n; i++ {
		row := mat.NewVecDense(p+1, mat.Row(nil, i, design))
		var tmp mat.VecDense
		tmp.MulVec(&xtxInv, row)
		leverage[i] = mat.Dot(row, &tmp)
	}

	stdResid := make([]float64, n)
	cooks := make([]float64, n)
	for i := 0; i < n; i++ {
		d := 1 - leverage[i]
		stdResid[i] = resid[i] / (sigma * math.Sqrt(d))
		cooks[i] = resid[i] * resid[i] * leverage[i] /
			(float64(p+1) * sigma2 * d * d)
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	build := func(term string, j int) Coefficient {
		est := coef.At(j, 0)
		se := sigma * math.Sqrt(xtxInv.At(j, j))
		tval := est / se
		return Coefficient{
			Term:     term,
			Estimate: est,
			StdErr:   se,
			TValue:   tval,
			PValue:   2 * tdist.Survival(math.Abs(tval)),
		}
	}
	intercept := build(InterceptTerm, 0)
	coeffs := make([]Coefficient, p)
	for j := 0; j < p; j++ {
		coeffs[j] = build(m.terms[j], j+1)
	}

	yVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}
	r2, err := metrics.R2Score(yVec, mat.NewVecDense(n, fitted))
	if err != nil {
		return err
	}
	adjR2, err := metrics.AdjustedR2(r2, n, p)
	if err != nil {
		return err
	}
	aic, err := metrics.AIC(rss, n, p+1)
	if err != nil {
		return err
	}

	m.summary = &FitSummary{
		Terms:        append([]string(nil), m.terms...),
		Intercept:    intercept,
		Coefficients: coeffs,
		N:            n,
		P:            p,
		RSS:          rss,
		Sigma:        sigma,
		R2:           r2,
		AdjR2:        adjR2,
		AIC:          aic,
		Fitted:       fitted,
		Residuals:    resid,
		Leverage:     leverage,
		StdResiduals: stdResid,
		CooksD:       cooks,
	}
	m.fitted = true
	return nil
}

// Summary returns the statistics of the last Fit.
func (m *OLS) Summary() (*FitSummary, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError("OLS", "Summary")
	}
	return m.summary, nil
}

// Predict applies the fitted coefficients to a raw design matrix with
// the same columns as the one used in Fit.
func (m *OLS) Predict(X mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError("OLS", "Predict")
	}
	n, p := X.Dims()
	if p != m.summary.P {
		return nil, errors.NewDimensionError("OLS.Predict", m.summary.P, p, 1)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := m.summary.Intercept.Estimate
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * m.summary.Coefficients[j].Estimate
		}
		out[i] = pred
	}
	return out, nil
}
