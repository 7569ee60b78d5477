// Package config holds the run configuration for the station ridership
// analysis. Configuration comes from an optional YAML file layered over
// Default(); there are no environment overrides, a run is reproducible
// from its config file alone.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cyclestat/dataset"
	"cyclestat/pkg/errors"
)

// Penalty selection rules for the cross-validated lasso.
const (
	RuleOneSE = "1se"
	RuleMin   = "min"
)

// CV configures the k-fold cross-validation used for penalty selection.
type CV struct {
	Folds   int   `yaml:"folds"`
	Shuffle bool  `yaml:"shuffle"`
	Seed    int64 `yaml:"seed"`
}

// Lasso configures the coordinate-descent penalty path.
type Lasso struct {
	NLambda     int     `yaml:"nlambda"`
	LambdaRatio float64 `yaml:"lambdaRatio"`
	Rule        string  `yaml:"rule"`
}

// Report configures table and figure rendering.
type Report struct {
	Decimals      int `yaml:"decimals"`
	HistogramBins int `yaml:"histogramBins"`
}

// Config is the full analysis configuration.
type Config struct {
	// Input is the station attribute CSV path.
	Input string `yaml:"input"`

	// OutputDir receives all rendered tables, figures and the workbook.
	OutputDir string `yaml:"outputDir"`

	// Exclude lists station identifiers dropped at load time.
	Exclude []string `yaml:"exclude"`

	// Predictors is the explicit candidate predictor list handed to the
	// feature reducer and the stepwise fits. Model terms are named here,
	// never parsed from a formula string.
	Predictors []string `yaml:"predictors"`

	CV    CV    `yaml:"cv"`
	Lasso Lasso `yaml:"lasso"`

	// VIFThreshold drives the iterative collinearity trim on the
	// lasso-informed fit.
	VIFThreshold float64 `yaml:"vifThreshold"`

	// OutlierTrim is how many of the highest-ridership stations the
	// trimmed stepwise fit removes.
	OutlierTrim int `yaml:"outlierTrim"`

	Report Report `yaml:"report"`
}

// DefaultPredictors returns the candidate predictor set of the reference
// analysis: every covariate of the station schema except the age share,
// which the reference run records but never offers to selection.
func DefaultPredictors() []string {
	return []string{
		dataset.ColPopDensity,
		dataset.ColJobDensity,
		dataset.ColNoCarPct,
		dataset.ColUniversityPct,
		dataset.ColIncomeDeprivPct,
		dataset.ColEmployDeprivPct,
		dataset.ColSlopePct,
		dataset.ColTransitDistM,
		dataset.ColCycleLaneRatio,
		dataset.ColDowntownDistM,
		dataset.ColTransitFlag,
	}
}

// Default returns the reference run configuration.
func Default() *Config {
	return &Config{
		Input:      "data/stations.csv",
		OutputDir:  "out",
		Exclude:    []string{"ST017"},
		Predictors: DefaultPredictors(),
		CV: CV{
			Folds:   10,
			Shuffle: false,
			Seed:    42,
		},
		Lasso: Lasso{
			NLambda:     100,
			LambdaRatio: 1e-4,
			Rule:        RuleOneSE,
		},
		VIFThreshold: 5.0,
		OutlierTrim:  3,
		Report: Report{
			Decimals:      4,
			HistogramBins: 10,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every parameter range. The zero rule string is not
// defaulted here; an explicit empty rule in the file is a mistake worth
// surfacing.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.NewValidationError("input", "must not be empty", c.Input)
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.NewValidationError("outputDir", "must not be empty", c.OutputDir)
	}
	if len(c.Predictors) == 0 {
		return errors.NewValidationError("predictors", "must name at least one candidate", c.Predictors)
	}
	seen := make(map[string]bool, len(c.Predictors))
	for _, p := range c.Predictors {
		if seen[p] {
			return errors.NewValidationError("predictors", "duplicate candidate "+p, c.Predictors)
		}
		seen[p] = true
	}
	if c.CV.Folds < 2 {
		return errors.NewValidationError("cv.folds", "must be at least 2", c.CV.Folds)
	}
	if c.Lasso.NLambda < 2 {
		return errors.NewValidationError("lasso.nlambda", "must be at least 2", c.Lasso.NLambda)
	}
	if c.Lasso.LambdaRatio <= 0 || c.Lasso.LambdaRatio >= 1 {
		return errors.NewValidationError("lasso.lambdaRatio", "must be in (0, 1)", c.Lasso.LambdaRatio)
	}
	if c.Lasso.Rule != RuleOneSE && c.Lasso.Rule != RuleMin {
		return errors.NewValidationError("lasso.rule", `must be "1se" or "min"`, c.Lasso.Rule)
	}
	if c.VIFThreshold <= 1 {
		return errors.NewValidationError("vifThreshold", "must exceed 1", c.VIFThreshold)
	}
	if c.OutlierTrim < 0 {
		return errors.NewValidationError("outlierTrim", "must not be negative", c.OutlierTrim)
	}
	if c.Report.Decimals < 0 || c.Report.Decimals > 12 {
		return errors.NewValidationError("report.decimals", "must be between 0 and 12", c.Report.Decimals)
	}
	if c.Report.HistogramBins < 2 {
		return errors.NewValidationError("report.histogramBins", "must be at least 2", c.Report.HistogramBins)
	}
	return nil
}
