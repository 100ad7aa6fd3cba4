// Package photometry computes photometric assay results from absorbance
// readings: dual-wavelength correction followed by one of three reading
// methods (end point, fixed time, kinetic).
//
// Query times are mapped to samples through a LookupPolicy. Nearest and Exact
// use the recorded sample values as-is; Interpolate blends the two bracketing
// samples linearly. Results at non-sample-aligned times therefore depend on
// the policy, so callers should pin it in configuration. The end point method
// anchors on the last sample at or before the requested time under Nearest.
//
// Every method rejects series whose times are not strictly increasing or
// whose values are not finite.
package photometry

import (
	"fmt"
	"math"

	"github.com/prenatal-assay-engine/internal/domain"
)

// DefaultAlignmentTolerance is the largest accepted timestamp difference between channels.
const DefaultAlignmentTolerance = 1e-9

// Correct subtracts the sub-wavelength trace from the main trace point-wise.
func Correct(main, sub domain.AbsorbanceSeries) (domain.CorrectedSeries, error) {
	return CorrectWithTolerance(main, sub, DefaultAlignmentTolerance)
}

// CorrectWithTolerance is Correct with an explicit channel alignment tolerance in seconds.
func CorrectWithTolerance(main, sub domain.AbsorbanceSeries, tolerance float64) (domain.CorrectedSeries, error) {
	if !domain.IsFinite(tolerance) || tolerance < 0 {
		return nil, domain.NewInvalidInput("alignment_tolerance", "must be non-negative", tolerance)
	}
	if len(main) == 0 {
		return nil, domain.NewInvalidInput("main", "series is empty", 0)
	}
	if len(main) != len(sub) {
		return nil, domain.NewInvalidInput("sub", fmt.Sprintf("length %d does not match main length %d", len(sub), len(main)), len(sub))
	}
	if err := main.Validate(); err != nil {
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	out := make(domain.CorrectedSeries, len(main))
	for i := range main {
		if math.Abs(main[i].Time-sub[i].Time) > tolerance {
			return nil, domain.NewInvalidInput(fmt.Sprintf("sub[%d].t", i), fmt.Sprintf("timestamp does not match main (%g)", main[i].Time), sub[i].Time)
		}
		out[i] = domain.Sample{
			Time:       main[i].Time,
			Absorbance: main[i].Absorbance - sub[i].Absorbance,
		}
	}
	return out, nil
}
