package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "nearest", cfg.Assay.LookupPolicy)
	assert.Equal(t, 1.0, cfg.Assay.Factor)
	assert.Equal(t, 0.28, cfg.Screening.WeightIntercept)
	assert.Equal(t, 43.0, cfg.Screening.WeightSlope)
	assert.Equal(t, []string{"AFP", "hCG"}, cfg.Screening.Markers)
	assert.Equal(t, DefaultReferenceVersion, cfg.Reference.Version)
	assert.Len(t, cfg.Reference.Medians, 8)
	assert.Len(t, cfg.Reference.Models, 2)

	var age38 float64
	for _, p := range cfg.Reference.AgePriors {
		if p.Age == 38 {
			age38 = p.Denominator
		}
	}
	assert.Equal(t, 150.0, age38)
}

func TestNewManager_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: text
batch:
  workers: 8
  fail_fast: true
assay:
  lookup_policy: interpolate
  tolerance: 0.25
screening:
  markers: [hCG]
  risk_cutoff: 250
reference:
  version: lab-7
  medians:
    - {marker: hCG, week: 16, median: 31.5}
  models:
    - marker: hCG
      unaffected: {mean: 0.0, std_dev: 0.16}
      affected: {mean: 0.29, std_dev: 0.19}
  age_priors:
    - {age: 30, denominator: 700}
    - {age: 40, denominator: 90}
`)

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.True(t, cfg.Batch.FailFast)
	assert.Equal(t, "interpolate", m.GetAssayConfig().LookupPolicy)
	assert.Equal(t, 0.25, m.GetAssayConfig().Tolerance)
	assert.Equal(t, 250.0, m.GetScreeningConfig().RiskCutoff)

	ref := m.GetReferenceConfig()
	assert.Equal(t, "lab-7", ref.Version)
	require.Len(t, ref.Medians, 1)
	assert.Equal(t, "hCG", ref.Medians[0].Marker)
	assert.Equal(t, 16, ref.Medians[0].Week)
	assert.Equal(t, 31.5, ref.Medians[0].Median)
	require.Len(t, ref.Models, 1)
	assert.Equal(t, 0.19, ref.Models[0].Affected.StdDev)
	assert.Len(t, ref.AgePriors, 2)
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ASSAY_ENGINE_BATCH_WORKERS", "16")
	t.Setenv("ASSAY_ENGINE_LOGGING_LEVEL", "warn")
	t.Setenv("ASSAY_ENGINE_ASSAY_LOOKUP_POLICY", "exact")

	m, err := NewManager("")
	require.NoError(t, err)

	assert.Equal(t, 16, m.GetConfig().Batch.Workers)
	assert.Equal(t, "warn", m.GetLoggingConfig().Level)
	assert.Equal(t, "exact", m.GetAssayConfig().LookupPolicy)
}

func TestNewManager_MissingExplicitFile(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestManager_Reload(t *testing.T) {
	path := writeConfig(t, "batch:\n  workers: 2\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.GetConfig().Batch.Workers)

	require.NoError(t, os.WriteFile(path, []byte("batch:\n  workers: 3\n"), 0600))
	require.NoError(t, m.Reload())
	assert.Equal(t, 3, m.GetConfig().Batch.Workers)
}

func TestManager_Validate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Bad log level", "logging:\n  level: loud\n"},
		{"Bad log format", "logging:\n  format: xml\n"},
		{"No workers", "batch:\n  workers: 0\n"},
		{"Bad lookup policy", "assay:\n  lookup_policy: spline\n"},
		{"Negative tolerance", "assay:\n  tolerance: -1\n"},
		{"Negative factor", "assay:\n  factor: -2\n"},
		{"Zero cutoff", "screening:\n  risk_cutoff: 0\n"},
		{"Marker without model", "screening:\n  markers: [uE3]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Error(t, m.Validate())
		})
	}
}
