// Package screening implements the T21 maternal serum screening calculation:
// MoM normalization with maternal weight correction, per-marker likelihood
// ratios from lognormal population models, and the prior/posterior risk
// combination. Every function is pure and safe for concurrent use.
package screening

import (
	"github.com/prenatal-assay-engine/internal/domain"
)

// WeightModel predicts the expected MoM for a maternal weight as
// Intercept + Slope/weightKg. Measured MoMs are divided by the expectation.
type WeightModel struct {
	Intercept float64 `json:"intercept" yaml:"intercept"`
	Slope     float64 `json:"slope" yaml:"slope"`
}

// DefaultWeightModel is the reciprocal-linear weight model 0.28 + 43.0/kg.
var DefaultWeightModel = WeightModel{Intercept: 0.28, Slope: 43.0}

// ExpectedMoM returns the expected MoM for the given weight.
func (w WeightModel) ExpectedMoM(weightKg float64) (float64, error) {
	if !domain.IsFinite(weightKg) || weightKg <= 0 {
		return 0, domain.NewInvalidInput("weight_kg", "must be positive", weightKg)
	}
	expected := w.Intercept + w.Slope/weightKg
	if !domain.IsFinite(expected) || expected <= 0 {
		return 0, domain.NewInvalidInput("expected_mom", "weight model yields non-positive expectation", expected)
	}
	return expected, nil
}

// CorrectionFactor returns 1/ExpectedMoM(weightKg).
func (w WeightModel) CorrectionFactor(weightKg float64) (float64, error) {
	expected, err := w.ExpectedMoM(weightKg)
	if err != nil {
		return 0, err
	}
	return 1.0 / expected, nil
}

// Normalize converts a measurement to a weight-corrected MoM using DefaultWeightModel.
func Normalize(m domain.BiomarkerMeasurement, p domain.PatientProfile) (domain.MoMResult, error) {
	return NormalizeWithModel(m, p, DefaultWeightModel)
}

// NormalizeWithModel converts a measurement to a weight-corrected MoM.
func NormalizeWithModel(m domain.BiomarkerMeasurement, p domain.PatientProfile, w WeightModel) (domain.MoMResult, error) {
	if !domain.IsFinite(m.PopulationMedian) || m.PopulationMedian <= 0 {
		return domain.MoMResult{}, domain.NewInvalidInput("population_median", "must be positive", m.PopulationMedian)
	}
	if !domain.IsFinite(m.Value) || m.Value <= 0 {
		return domain.MoMResult{}, domain.NewInvalidInput("value", "must be positive", m.Value)
	}

	factor, err := w.CorrectionFactor(p.WeightKg)
	if err != nil {
		return domain.MoMResult{}, err
	}

	raw := m.Value / m.PopulationMedian
	return domain.MoMResult{
		RawMoM:           raw,
		CorrectionFactor: factor,
		CorrectedMoM:     raw * factor,
	}, nil
}
