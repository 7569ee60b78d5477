package linear

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"cyclestat/metrics"
	"cyclestat/pkg/errors"
	"cyclestat/preprocessing"
)

// CVFold holds the row indices of one cross-validation split.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits rows into k contiguous folds. With Shuffle set, rows are
// permuted first by a PCG stream seeded from Seed, so splits stay
// reproducible across runs.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits < 2 {
		nSplits = 10
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates train/test indices for each fold. The first
// n mod k folds take one extra row.
func (kf *KFold) Split(n int) ([]CVFold, error) {
	if n < kf.NSplits {
		return nil, errors.NewValueError("KFold.Split", "more folds than rows")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		train := make([]int, 0, n-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)

		folds[i] = CVFold{TrainIndices: train, TestIndices: test}
		current += testSize
	}
	return folds, nil
}

// CVResult aggregates held-out mean squared error along a lambda path.
type CVResult struct {
	// Lambdas is the descending penalty path shared by every fold.
	Lambdas []float64
	// MeanMSE is the across-fold mean of the held-out MSE per lambda.
	MeanMSE []float64
	// SE is the standard error of the fold MSEs per lambda.
	SE []float64
	// LambdaMin is the penalty with the smallest mean MSE.
	LambdaMin float64
	// Lambda1SE is the largest penalty whose mean MSE stays within one
	// standard error of the minimum.
	Lambda1SE float64
}

// CrossValidateLasso scores the penalty path by k-fold cross-validation.
// X and y are the raw (unstandardized) design and response. Each fold
// standardizes X and centers y on its training rows only, then walks the
// shared grid with warm starts and scores MSE on the held-out rows.
func CrossValidateLasso(X mat.Matrix, y []float64, grid []float64, kf *KFold) (*CVResult, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("linear.CrossValidateLasso", "empty design matrix", errors.ErrEmptyData)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("linear.CrossValidateLasso", n, len(y), 0)
	}
	if len(grid) == 0 {
		return nil, errors.NewValueError("linear.CrossValidateLasso", "empty lambda grid")
	}

	folds, err := kf.Split(n)
	if err != nil {
		return nil, err
	}

	foldMSE := make([][]float64, len(grid))
	for li := range foldMSE {
		foldMSE[li] = make([]float64, len(folds))
	}

	for fi, fold := range folds {
		trainX := subsetRows(X, fold.TrainIndices)
		testX := subsetRows(X, fold.TestIndices)
		trainY := subsetVals(y, fold.TrainIndices)
		testY := subsetVals(y, fold.TestIndices)

		scaler := preprocessing.NewStandardScalerDefault()
		trainXs, err := scaler.FitTransform(trainX)
		if err != nil {
			return nil, err
		}
		testXs, err := scaler.Transform(testX)
		if err != nil {
			return nil, err
		}

		yMean := stat.Mean(trainY, nil)
		trainYc := make([]float64, len(trainY))
		for i, v := range trainY {
			trainYc[i] = v - yMean
		}

		lasso := NewLasso(0)
		lasso.WarmStart = true
		testVec := mat.NewVecDense(len(testY), testY)
		for li, lambda := range grid {
			lasso.Lambda = lambda
			if err := lasso.Fit(trainXs, trainYc); err != nil {
				return nil, err
			}
			pred, err := lasso.Predict(testXs)
			if err != nil {
				return nil, err
			}
			for i := range pred {
				pred[i] += yMean
			}
			mse, err := metrics.MSE(testVec, mat.NewVecDense(len(pred), pred))
			if err != nil {
				return nil, err
			}
			foldMSE[li][fi] = mse
		}
	}

	res := &CVResult{
		Lambdas: append([]float64(nil), grid...),
		MeanMSE: make([]float64, len(grid)),
		SE:      make([]float64, len(grid)),
	}
	sqrtK := math.Sqrt(float64(len(folds)))
	for li := range grid {
		res.MeanMSE[li] = stat.Mean(foldMSE[li], nil)
		res.SE[li] = stat.StdDev(foldMSE[li], nil) / sqrtK
	}

	// The grid descends from lambda max, so scanning forward makes the
	// largest penalty win ties.
	minIdx := 0
	for li := 1; li < len(grid); li++ {
		if res.MeanMSE[li] < res.MeanMSE[minIdx] {
			minIdx = li
		}
	}
	res.LambdaMin = grid[minIdx]

	threshold := res.MeanMSE[minIdx] + res.SE[minIdx]
	for li := range grid {
		if res.MeanMSE[li] <= threshold {
			res.Lambda1SE = grid[li]
			break
		}
	}
	return res, nil
}

func subsetRows(X mat.Matrix, rows []int) *mat.Dense {
	_, p := X.Dims()
	out := mat.NewDense(len(rows), p, nil)
	for i, r := range rows {
		for j := 0; j < p; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

func subsetVals(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
