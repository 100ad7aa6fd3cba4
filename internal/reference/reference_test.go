package reference

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-assay-engine/internal/domain"
)

func testConfig() domain.ReferenceConfig {
	return domain.ReferenceConfig{
		Version: "test-1",
		Medians: []domain.MedianEntry{
			{Marker: "AFP", Week: 16, Median: 35.0},
			{Marker: "hCG", Week: 16, Median: 30.0},
			{Marker: "hCG", Week: 17, Median: 25.9},
		},
		Models: []domain.MarkerModelEntry{
			{
				Marker:     "hCG",
				Unaffected: domain.DensityModel{Mean: 0, StdDev: 0.15},
				Affected:   domain.DensityModel{Mean: 0.3, StdDev: 0.18},
			},
		},
		AgePriors: []domain.AgePriorEntry{
			{Age: 40, Denominator: 90},
			{Age: 20, Denominator: 1200},
			{Age: 38, Denominator: 150},
		},
	}
}

func TestNew(t *testing.T) {
	d, err := New(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "test-1", d.Version())
	assert.True(t, d.HasMarker(domain.MarkerHCG))
	assert.True(t, d.HasMarker("HCG"))
	assert.False(t, d.HasMarker(domain.MarkerAFP))
}

func TestData_Median(t *testing.T) {
	d, err := New(testConfig())
	require.NoError(t, err)

	median, err := d.Median(domain.MarkerHCG, 16)
	require.NoError(t, err)
	assert.Equal(t, 30.0, median)

	median, err = d.Median("afp", 16)
	require.NoError(t, err)
	assert.Equal(t, 35.0, median)

	_, err = d.Median(domain.MarkerHCG, 22)
	assert.True(t, domain.IsKind(err, domain.ErrOutOfRange))

	_, err = d.Median(domain.MarkerUE3, 16)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestData_Model(t *testing.T) {
	d, err := New(testConfig())
	require.NoError(t, err)

	model, err := d.Model(domain.MarkerHCG)
	require.NoError(t, err)
	assert.Equal(t, 0.3, model.Affected.Mean)
	assert.Equal(t, 0.15, model.Unaffected.StdDev)

	_, err = d.Model(domain.MarkerAFP)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestNew_InvalidData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *domain.ReferenceConfig)
	}{
		{"Non-positive median", func(c *domain.ReferenceConfig) { c.Medians[0].Median = 0 }},
		{"Missing week", func(c *domain.ReferenceConfig) { c.Medians[0].Week = 0 }},
		{"Duplicate median", func(c *domain.ReferenceConfig) { c.Medians[2].Week = 16 }},
		{"Zero std dev", func(c *domain.ReferenceConfig) { c.Models[0].Affected.StdDev = 0 }},
		{"Duplicate model", func(c *domain.ReferenceConfig) { c.Models = append(c.Models, c.Models[0]) }},
		{"Empty prior table", func(c *domain.ReferenceConfig) { c.AgePriors = nil }},
		{"Duplicate prior age", func(c *domain.ReferenceConfig) { c.AgePriors[0].Age = 38 }},
		{"Prior age out of range", func(c *domain.ReferenceConfig) { c.AgePriors[0].Age = 70 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			_, ok := domain.KindOf(err)
			assert.True(t, ok, "expected a CalcError, got %v", err)
		})
	}
}

func TestAgePriorTable(t *testing.T) {
	table, err := NewAgePriorTable(testConfig().AgePriors)
	require.NoError(t, err)

	exact, err := table.PriorOdds(38)
	require.NoError(t, err)
	assert.Equal(t, 150.0, exact)

	mid, err := table.PriorOdds(39)
	require.NoError(t, err)
	assert.InEpsilon(t, math.Sqrt(150*90), mid, 1e-12)

	_, err = table.PriorOdds(45)
	assert.True(t, domain.IsKind(err, domain.ErrOutOfRange))

	_, err = table.PriorOdds(13)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}
