package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclestat/dataset"
	"cyclestat/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/stations.csv", cfg.Input)
	assert.Equal(t, []string{"ST017"}, cfg.Exclude)
	assert.Len(t, cfg.Predictors, 11)
	assert.NotContains(t, cfg.Predictors, dataset.ColAge1634Pct,
		"the age share is recorded but never offered to selection")
	assert.Equal(t, 10, cfg.CV.Folds)
	assert.False(t, cfg.CV.Shuffle)
	assert.Equal(t, RuleOneSE, cfg.Lasso.Rule)
	assert.Equal(t, 100, cfg.Lasso.NLambda)
	assert.InDelta(t, 1e-4, cfg.Lasso.LambdaRatio, 0)
	assert.InDelta(t, 5.0, cfg.VIFThreshold, 0)
	assert.Equal(t, 3, cfg.OutlierTrim)
}

func TestLoad(t *testing.T) {
	t.Run("overrides layer over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.yaml")
		doc := `
input: testdata/small.csv
vifThreshold: 4.5
cv:
  folds: 5
  shuffle: true
  seed: 7
lasso:
  rule: min
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "testdata/small.csv", cfg.Input)
		assert.InDelta(t, 4.5, cfg.VIFThreshold, 0)
		assert.Equal(t, 5, cfg.CV.Folds)
		assert.True(t, cfg.CV.Shuffle)
		assert.Equal(t, int64(7), cfg.CV.Seed)
		assert.Equal(t, RuleMin, cfg.Lasso.Rule)

		// Untouched fields keep their defaults.
		assert.Equal(t, "out", cfg.OutputDir)
		assert.Equal(t, 100, cfg.Lasso.NLambda)
		assert.Len(t, cfg.Predictors, 11)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cv: [not a mapping"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("vifThreshold: 0.5\n"), 0o644))
		_, err := Load(path)
		require.Error(t, err)

		var verr *errors.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "vifThreshold", verr.ParamName)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"empty input", func(c *Config) { c.Input = " " }, "input"},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, "outputDir"},
		{"no predictors", func(c *Config) { c.Predictors = nil }, "predictors"},
		{"duplicate predictor", func(c *Config) {
			c.Predictors = append(c.Predictors, dataset.ColPopDensity)
		}, "predictors"},
		{"single fold", func(c *Config) { c.CV.Folds = 1 }, "cv.folds"},
		{"tiny grid", func(c *Config) { c.Lasso.NLambda = 1 }, "lasso.nlambda"},
		{"ratio at one", func(c *Config) { c.Lasso.LambdaRatio = 1 }, "lasso.lambdaRatio"},
		{"ratio at zero", func(c *Config) { c.Lasso.LambdaRatio = 0 }, "lasso.lambdaRatio"},
		{"unknown rule", func(c *Config) { c.Lasso.Rule = "aicc" }, "lasso.rule"},
		{"threshold too low", func(c *Config) { c.VIFThreshold = 1 }, "vifThreshold"},
		{"negative trim", func(c *Config) { c.OutlierTrim = -1 }, "outlierTrim"},
		{"negative decimals", func(c *Config) { c.Report.Decimals = -1 }, "report.decimals"},
		{"one histogram bin", func(c *Config) { c.Report.HistogramBins = 1 }, "report.histogramBins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.param, verr.ParamName)
		})
	}
}
