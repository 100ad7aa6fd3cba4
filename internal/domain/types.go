// Package domain contains the value types shared by the prenatal screening and
// photometric assay calculations, the error taxonomy they report with, and the
// configuration structures that carry reference data into them.
//
// Reference: Wald NJ et al. (1988) Maternal serum screening for Down's syndrome
// in early pregnancy. BMJ 297:883-7.
package domain

import (
	"errors"
	"fmt"
	"math"
)

// Marker identifies a maternal serum biomarker used in T21 screening.
type Marker string

const (
	MarkerAFP  Marker = "AFP"
	MarkerHCG  Marker = "hCG"
	MarkerUE3  Marker = "uE3"
	MarkerInhA Marker = "InhA"
)

// AssayMethod is the tag of an AssayMethodSpec.
type AssayMethod string

const (
	METHOD_END_POINT  AssayMethod = "END_POINT"
	METHOD_FIXED_TIME AssayMethod = "FIXED_TIME"
	METHOD_KINETIC    AssayMethod = "KINETIC"
)

// RiskCategory is the screening outcome relative to a cut-off.
type RiskCategory string

const (
	RISK_HIGH RiskCategory = "HIGH"
	RISK_LOW  RiskCategory = "LOW"
)

// Patient age bounds accepted by the screening pipeline.
const (
	MinMaternalAge = 14
	MaxMaternalAge = 55
)

// ErrInvalidAssayMethod is wrapped by ParseAssayMethod for unknown method names.
var ErrInvalidAssayMethod = errors.New("invalid assay method")

// IsValid reports whether the method is one of the supported reading methods.
func (m AssayMethod) IsValid() bool {
	switch m {
	case METHOD_END_POINT, METHOD_FIXED_TIME, METHOD_KINETIC:
		return true
	default:
		return false
	}
}

// String returns the string representation of the method
func (m AssayMethod) String() string {
	return string(m)
}

// ParseAssayMethod parses a method name case-sensitively.
func ParseAssayMethod(s string) (AssayMethod, error) {
	m := AssayMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidAssayMethod, s)
	}
	return m, nil
}

// String returns the marker name
func (m Marker) String() string {
	return string(m)
}

// BiomarkerMeasurement is a single patient reading for one marker together
// with the population median of the matching gestational week.
type BiomarkerMeasurement struct {
	Name             Marker  `json:"name" yaml:"name"`
	Value            float64 `json:"value" yaml:"value"`
	PopulationMedian float64 `json:"population_median" yaml:"population_median"`
}

// PatientProfile holds the maternal characteristics used for correction and prior risk.
type PatientProfile struct {
	Age      int     `json:"age" yaml:"age"`
	WeightKg float64 `json:"weight_kg" yaml:"weight_kg"`
}

// Validate checks age and weight bounds.
func (p PatientProfile) Validate() error {
	if p.Age < MinMaternalAge || p.Age > MaxMaternalAge {
		return NewInvalidInput("age", fmt.Sprintf("must be within [%d,%d]", MinMaternalAge, MaxMaternalAge), p.Age)
	}
	if !IsFinite(p.WeightKg) || p.WeightKg <= 0 {
		return NewInvalidInput("weight_kg", "must be positive", p.WeightKg)
	}
	return nil
}

// MoMResult is the output of MoM normalization.
type MoMResult struct {
	RawMoM           float64 `json:"raw_mom" yaml:"raw_mom"`
	CorrectionFactor float64 `json:"correction_factor" yaml:"correction_factor"`
	CorrectedMoM     float64 `json:"corrected_mom" yaml:"corrected_mom"`
}

// DensityModel is a normal distribution over log10(MoM) for one population class.
type DensityModel struct {
	Mean   float64 `json:"mean" yaml:"mean" mapstructure:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev" mapstructure:"std_dev"`
}

// Validate checks that the model parameters are usable.
func (d DensityModel) Validate() error {
	if !IsFinite(d.Mean) {
		return NewInvalidInput("mean", "must be finite", d.Mean)
	}
	if !IsFinite(d.StdDev) || d.StdDev <= 0 {
		return NewInvalidInput("std_dev", "must be positive", d.StdDev)
	}
	return nil
}

// MarkerModel pairs the unaffected and affected density models of one marker.
type MarkerModel struct {
	Unaffected DensityModel `json:"unaffected" yaml:"unaffected" mapstructure:"unaffected"`
	Affected   DensityModel `json:"affected" yaml:"affected" mapstructure:"affected"`
}

// RiskResult holds odds in "1 in N" form; PriorOdds and PosteriorOdds are the denominators N.
type RiskResult struct {
	PriorOdds       float64 `json:"prior_odds" yaml:"prior_odds"`
	LikelihoodRatio float64 `json:"likelihood_ratio" yaml:"likelihood_ratio"`
	PosteriorOdds   float64 `json:"posterior_odds" yaml:"posterior_odds"`
}

// DisplayDenominator rounds the posterior denominator to the nearest integer.
// The stored value is not modified.
func (r RiskResult) DisplayDenominator() int64 {
	return int64(math.Round(r.PosteriorOdds))
}

// String renders the posterior risk as "1 in N".
func (r RiskResult) String() string {
	return fmt.Sprintf("1 in %d", r.DisplayDenominator())
}

// Categorize compares the posterior risk with a "1 in cutoff" threshold.
// A smaller denominator means a higher risk.
func (r RiskResult) Categorize(cutoff float64) RiskCategory {
	if r.PosteriorOdds <= cutoff {
		return RISK_HIGH
	}
	return RISK_LOW
}

// Sample is one absorbance reading.
type Sample struct {
	Time       float64 `json:"t" yaml:"t"`
	Absorbance float64 `json:"a" yaml:"a"`
}

// AbsorbanceSeries is an ordered sequence of readings of one wavelength channel.
type AbsorbanceSeries []Sample

// Validate checks that times are strictly increasing and all values finite.
func (s AbsorbanceSeries) Validate() error {
	for i, p := range s {
		if !IsFinite(p.Time) || !IsFinite(p.Absorbance) {
			return NewInvalidInput(fmt.Sprintf("series[%d]", i), "must be finite", p)
		}
		if i > 0 && p.Time <= s[i-1].Time {
			return NewInvalidInput(fmt.Sprintf("series[%d].t", i), "time must be strictly increasing", p.Time)
		}
	}
	return nil
}

// Times returns the time axis of the series.
func (s AbsorbanceSeries) Times() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Absorbances returns the absorbance values of the series.
func (s AbsorbanceSeries) Absorbances() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Absorbance
	}
	return out
}

// CorrectedSeries is the dual-wavelength corrected trace (main minus sub).
type CorrectedSeries AbsorbanceSeries

// AssayMethodSpec selects a reading method and its time window. PointTime is
// used by END_POINT; StartTime and EndTime by FIXED_TIME and KINETIC.
type AssayMethodSpec struct {
	Method    AssayMethod `json:"method" yaml:"method"`
	PointTime float64     `json:"point_time,omitempty" yaml:"point_time,omitempty"`
	StartTime float64     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   float64     `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// EndPoint builds an END_POINT spec.
func EndPoint(pointTime float64) AssayMethodSpec {
	return AssayMethodSpec{Method: METHOD_END_POINT, PointTime: pointTime}
}

// FixedTime builds a FIXED_TIME spec.
func FixedTime(startTime, endTime float64) AssayMethodSpec {
	return AssayMethodSpec{Method: METHOD_FIXED_TIME, StartTime: startTime, EndTime: endTime}
}

// Kinetic builds a KINETIC spec.
func Kinetic(startTime, endTime float64) AssayMethodSpec {
	return AssayMethodSpec{Method: METHOD_KINETIC, StartTime: startTime, EndTime: endTime}
}

// Validate checks that the method tag is a supported reading method.
func (s AssayMethodSpec) Validate() error {
	if _, err := ParseAssayMethod(string(s.Method)); err != nil {
		return NewInvalidInput("method", err.Error(), s.Method)
	}
	return nil
}

// Unit returns the implicit unit of the method's result.
func (s AssayMethodSpec) Unit() string {
	switch s.Method {
	case METHOD_END_POINT:
		return "A"
	case METHOD_FIXED_TIME, METHOD_KINETIC:
		return "A/min"
	default:
		return ""
	}
}

// AssayResult is the output of one assay method evaluation.
type AssayResult struct {
	Method AssayMethod `json:"method" yaml:"method"`
	Value  float64     `json:"value" yaml:"value"`
	Unit   string      `json:"unit" yaml:"unit"`
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
