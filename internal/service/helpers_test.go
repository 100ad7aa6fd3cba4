package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prenatal-assay-engine/internal/domain"
	"github.com/prenatal-assay-engine/internal/reference"
)

func testReference(t *testing.T) *reference.Data {
	t.Helper()
	data, err := reference.New(domain.ReferenceConfig{
		Version: "test-ref",
		Medians: []domain.MedianEntry{
			{Marker: "AFP", Week: 16, Median: 35.0},
			{Marker: "hCG", Week: 16, Median: 30.0},
		},
		Models: []domain.MarkerModelEntry{
			{
				Marker:     "AFP",
				Unaffected: domain.DensityModel{Mean: 0, StdDev: 0.17},
				Affected:   domain.DensityModel{Mean: -0.12, StdDev: 0.17},
			},
			{
				Marker:     "hCG",
				Unaffected: domain.DensityModel{Mean: 0, StdDev: 0.15},
				Affected:   domain.DensityModel{Mean: 0.3, StdDev: 0.18},
			},
		},
		AgePriors: []domain.AgePriorEntry{
			{Age: 20, Denominator: 1200},
			{Age: 38, Denominator: 150},
			{Age: 45, Denominator: 25},
		},
	})
	require.NoError(t, err)
	return data
}
