package screening

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/prenatal-assay-engine/internal/domain"
)

// MarkerContribution is the evidence one marker adds to the screening result.
type MarkerContribution struct {
	Marker            domain.Marker    `json:"marker" yaml:"marker"`
	MoM               domain.MoMResult `json:"mom" yaml:"mom"`
	LogMoM            float64          `json:"log_mom" yaml:"log_mom"`
	UnaffectedDensity float64          `json:"unaffected_density" yaml:"unaffected_density"`
	AffectedDensity   float64          `json:"affected_density" yaml:"affected_density"`
	LikelihoodRatio   float64          `json:"likelihood_ratio" yaml:"likelihood_ratio"`
	Clamped           bool             `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// Density evaluates the normal probability density of x under the model.
func Density(x float64, model domain.DensityModel) float64 {
	return distuv.Normal{Mu: model.Mean, Sigma: model.StdDev}.Prob(x)
}

// LikelihoodRatio returns density(affected)/density(unaffected) at log10(correctedMoM).
// A density that underflows to zero is reported as NUMERIC_DEGENERACY.
func LikelihoodRatio(correctedMoM float64, unaffected, affected domain.DensityModel) (float64, error) {
	c, err := evaluate(correctedMoM, domain.MarkerModel{Unaffected: unaffected, Affected: affected}, 0)
	if err != nil {
		return 0, err
	}
	return c.LikelihoodRatio, nil
}

// ClampedLikelihoodRatio is LikelihoodRatio with both densities raised to at
// least floor. A floor of zero behaves exactly like LikelihoodRatio.
func ClampedLikelihoodRatio(correctedMoM float64, unaffected, affected domain.DensityModel, floor float64) (float64, error) {
	c, err := evaluate(correctedMoM, domain.MarkerModel{Unaffected: unaffected, Affected: affected}, floor)
	if err != nil {
		return 0, err
	}
	return c.LikelihoodRatio, nil
}

// EvaluateMarker computes the full contribution of a normalized marker.
func EvaluateMarker(marker domain.Marker, mom domain.MoMResult, model domain.MarkerModel, floor float64) (MarkerContribution, error) {
	c, err := evaluate(mom.CorrectedMoM, model, floor)
	if err != nil {
		return MarkerContribution{}, err
	}
	c.Marker = marker
	c.MoM = mom
	return c, nil
}

func evaluate(correctedMoM float64, model domain.MarkerModel, floor float64) (MarkerContribution, error) {
	if !domain.IsFinite(correctedMoM) || correctedMoM <= 0 {
		return MarkerContribution{}, domain.NewInvalidInput("corrected_mom", "must be positive for log transform", correctedMoM)
	}
	if err := model.Unaffected.Validate(); err != nil {
		return MarkerContribution{}, err
	}
	if err := model.Affected.Validate(); err != nil {
		return MarkerContribution{}, err
	}
	if !domain.IsFinite(floor) || floor < 0 {
		return MarkerContribution{}, domain.NewInvalidInput("degeneracy_floor", "must be non-negative", floor)
	}

	x := math.Log10(correctedMoM)
	c := MarkerContribution{
		LogMoM:            x,
		UnaffectedDensity: Density(x, model.Unaffected),
		AffectedDensity:   Density(x, model.Affected),
	}

	if floor > 0 {
		if c.UnaffectedDensity < floor {
			c.UnaffectedDensity = floor
			c.Clamped = true
		}
		if c.AffectedDensity < floor {
			c.AffectedDensity = floor
			c.Clamped = true
		}
	}

	if c.UnaffectedDensity == 0 {
		return MarkerContribution{}, domain.NewCalcError(domain.ErrNumericDegeneracy, "unaffected_density", "density underflowed to zero", x)
	}
	if c.AffectedDensity == 0 {
		return MarkerContribution{}, domain.NewCalcError(domain.ErrNumericDegeneracy, "affected_density", "density underflowed to zero", x)
	}

	c.LikelihoodRatio = c.AffectedDensity / c.UnaffectedDensity
	if !domain.IsFinite(c.LikelihoodRatio) {
		return MarkerContribution{}, domain.NewCalcError(domain.ErrNumericDegeneracy, "likelihood_ratio", "ratio is not finite", c.LikelihoodRatio)
	}
	return c, nil
}

// CombineLikelihoodRatios multiplies per-marker ratios. Markers are treated
// as conditionally independent; no correlation model is applied.
func CombineLikelihoodRatios(ratios ...float64) (float64, error) {
	if len(ratios) == 0 {
		return 0, domain.NewCalcError(domain.ErrInsufficientData, "likelihood_ratios", "at least one marker is required", 0)
	}
	total := 1.0
	for _, lr := range ratios {
		if !domain.IsFinite(lr) || lr <= 0 {
			return 0, domain.NewInvalidInput("likelihood_ratio", "must be positive", lr)
		}
		total *= lr
	}
	if total == 0 || !domain.IsFinite(total) {
		return 0, domain.NewCalcError(domain.ErrNumericDegeneracy, "likelihood_ratio", "product is not representable", total)
	}
	return total, nil
}
