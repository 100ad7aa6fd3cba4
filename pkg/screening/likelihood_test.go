package screening

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-assay-engine/internal/domain"
)

var (
	hcgUnaffected = domain.DensityModel{Mean: 0.0, StdDev: 0.15}
	hcgAffected   = domain.DensityModel{Mean: 0.3, StdDev: 0.18}
)

func normalPDF(x, mu, sigma float64) float64 {
	return math.Exp(-(x-mu)*(x-mu)/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
}

func TestDensity_MatchesClosedForm(t *testing.T) {
	for _, x := range []float64{-0.5, -0.1, 0, 0.2, 0.4051, 0.9} {
		assert.InEpsilon(t, normalPDF(x, 0.3, 0.18), Density(x, hcgAffected), 1e-12)
	}
}

func TestLikelihoodRatio_EndToEnd(t *testing.T) {
	mom, err := Normalize(
		domain.BiomarkerMeasurement{Name: domain.MarkerHCG, Value: 65.0, PopulationMedian: 30.0},
		domain.PatientProfile{Age: 38, WeightKg: 75.0},
	)
	require.NoError(t, err)

	assert.InDelta(t, 2.1667, mom.RawMoM, 1e-4)
	assert.InDelta(t, 2.5391, mom.CorrectedMoM, 1e-4)

	lr, err := LikelihoodRatio(mom.CorrectedMoM, hcgUnaffected, hcgAffected)
	require.NoError(t, err)

	x := math.Log10(mom.CorrectedMoM)
	assert.InDelta(t, 0.4047, x, 1e-4)
	expected := normalPDF(x, 0.3, 0.18) / normalPDF(x, 0.0, 0.15)
	assert.InEpsilon(t, expected, lr, 1e-9)
	assert.Greater(t, lr, 26.0)
	assert.Less(t, lr, 28.0)
}

func TestLikelihoodRatio_Deterministic(t *testing.T) {
	a, err := LikelihoodRatio(1.7, hcgUnaffected, hcgAffected)
	require.NoError(t, err)
	b, err := LikelihoodRatio(1.7, hcgUnaffected, hcgAffected)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLikelihoodRatio_MonotonicBetweenMeans(t *testing.T) {
	prev := 0.0
	for i := 0; i <= 60; i++ {
		x := hcgUnaffected.Mean + float64(i)*(hcgAffected.Mean-hcgUnaffected.Mean)/60
		lr, err := LikelihoodRatio(math.Pow(10, x), hcgUnaffected, hcgAffected)
		require.NoError(t, err)
		assert.Greater(t, lr, 0.0)
		if i > 0 {
			assert.Greater(t, lr, prev, "ratio must increase at log MoM %.4f", x)
		}
		prev = lr
	}
}

func TestLikelihoodRatio_PositiveOverSweep(t *testing.T) {
	for mom := 0.2; mom <= 5.0; mom += 0.05 {
		lr, err := LikelihoodRatio(mom, hcgUnaffected, hcgAffected)
		require.NoError(t, err)
		assert.Greater(t, lr, 0.0)
	}
}

func TestLikelihoodRatio_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		mom        float64
		unaffected domain.DensityModel
	}{
		{"Zero MoM", 0, hcgUnaffected},
		{"Negative MoM", -1.2, hcgUnaffected},
		{"Infinite MoM", math.Inf(1), hcgUnaffected},
		{"Zero std dev", 1.0, domain.DensityModel{Mean: 0, StdDev: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LikelihoodRatio(tt.mom, tt.unaffected, hcgAffected)
			assert.True(t, domain.IsKind(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestLikelihoodRatio_DegenerateTail(t *testing.T) {
	_, err := LikelihoodRatio(1e30, hcgUnaffected, hcgAffected)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrNumericDegeneracy))

	lr, err := ClampedLikelihoodRatio(1e30, hcgUnaffected, hcgAffected, 1e-300)
	require.NoError(t, err)
	assert.Equal(t, 1.0, lr)
}

func TestClampedLikelihoodRatio_ZeroFloorPropagates(t *testing.T) {
	a, err := ClampedLikelihoodRatio(2.0, hcgUnaffected, hcgAffected, 0)
	require.NoError(t, err)
	b, err := LikelihoodRatio(2.0, hcgUnaffected, hcgAffected)
	require.NoError(t, err)
	assert.Equal(t, b, a)

	_, err = ClampedLikelihoodRatio(2.0, hcgUnaffected, hcgAffected, -1)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestEvaluateMarker(t *testing.T) {
	mom := domain.MoMResult{RawMoM: 2.0, CorrectionFactor: 1.0, CorrectedMoM: 2.0}
	c, err := EvaluateMarker(domain.MarkerHCG, mom, domain.MarkerModel{Unaffected: hcgUnaffected, Affected: hcgAffected}, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.MarkerHCG, c.Marker)
	assert.Equal(t, mom, c.MoM)
	assert.InEpsilon(t, math.Log10(2.0), c.LogMoM, 1e-12)
	assert.InEpsilon(t, c.AffectedDensity/c.UnaffectedDensity, c.LikelihoodRatio, 1e-12)
	assert.False(t, c.Clamped)
}

func TestCombineLikelihoodRatios(t *testing.T) {
	total, err := CombineLikelihoodRatios(2.5, 0.8, 1.5)
	require.NoError(t, err)
	assert.InEpsilon(t, 3.0, total, 1e-12)

	single, err := CombineLikelihoodRatios(4.2)
	require.NoError(t, err)
	assert.Equal(t, 4.2, single)

	_, err = CombineLikelihoodRatios()
	assert.True(t, domain.IsKind(err, domain.ErrInsufficientData))

	_, err = CombineLikelihoodRatios(1.2, 0)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}
