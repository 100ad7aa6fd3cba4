package photometry

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/prenatal-assay-engine/internal/domain"
)

// secondsPerMinute converts per-second slopes to per-minute rates.
const secondsPerMinute = 60.0

// Engine evaluates assay methods over corrected series. The zero value uses
// nearest-sample lookup with no distance bound and a factor of 1.
type Engine struct {
	Lookup Lookup
	// Factor multiplies every result (assay factor or volume correction). Zero means 1.
	Factor float64
}

// DefaultEngine is the engine used by Compute.
var DefaultEngine = Engine{Lookup: Lookup{Policy: LookupNearest}}

// Compute evaluates spec over series with DefaultEngine.
func Compute(series domain.CorrectedSeries, spec domain.AssayMethodSpec) (domain.AssayResult, error) {
	return DefaultEngine.Compute(series, spec)
}

// Compute evaluates one assay method. Each call is independent.
func (e Engine) Compute(series domain.CorrectedSeries, spec domain.AssayMethodSpec) (domain.AssayResult, error) {
	if err := e.Lookup.validate(); err != nil {
		return domain.AssayResult{}, err
	}
	if !domain.IsFinite(e.Factor) || e.Factor < 0 {
		return domain.AssayResult{}, domain.NewInvalidInput("factor", "must be non-negative", e.Factor)
	}
	if err := domain.AbsorbanceSeries(series).Validate(); err != nil {
		return domain.AssayResult{}, err
	}

	var (
		value float64
		err   error
	)
	switch spec.Method {
	case domain.METHOD_END_POINT:
		value, err = e.endPoint(series, spec.PointTime)
	case domain.METHOD_FIXED_TIME:
		value, err = e.fixedTime(series, spec.StartTime, spec.EndTime)
	case domain.METHOD_KINETIC:
		value, err = e.kinetic(series, spec.StartTime, spec.EndTime)
	default:
		return domain.AssayResult{}, domain.NewInvalidInput("method", "unknown assay method", spec.Method)
	}
	if err != nil {
		return domain.AssayResult{}, err
	}

	if e.Factor != 0 {
		value *= e.Factor
	}
	return domain.AssayResult{Method: spec.Method, Value: value, Unit: spec.Unit()}, nil
}

// endPoint averages the reading at pointTime with the sample preceding it.
// Under LookupNearest the anchor is the last sample at or before pointTime.
func (e Engine) endPoint(s domain.CorrectedSeries, pointTime float64) (float64, error) {
	if len(s) < 2 {
		return 0, domain.NewCalcError(domain.ErrInsufficientData, "series", "end point needs at least 2 samples", len(s))
	}
	if pointTime < s[1].Time-e.Lookup.Tolerance {
		return 0, domain.NewOutOfRange("point_time", fmt.Sprintf("before second sample (%g)", s[1].Time), pointTime)
	}
	var (
		anchor resolved
		err    error
	)
	switch e.Lookup.Policy {
	case LookupNearest, "":
		anchor, err = e.Lookup.atOrBefore(s, "point_time", pointTime)
	default:
		anchor, err = e.Lookup.resolve(s, "point_time", pointTime)
	}
	if err != nil {
		return 0, err
	}

	prev := anchor.Index - 1
	if anchor.Interpolated {
		prev = anchor.Index
	}
	if prev < 0 {
		return 0, domain.NewOutOfRange("point_time", "no sample precedes the requested time", pointTime)
	}
	return (anchor.Value + s[prev].Absorbance) / 2, nil
}

// fixedTime is the two-point rate (A(end)-A(start))/(end-start) per minute.
// The requested times form the denominator, not the matched sample times.
func (e Engine) fixedTime(s domain.CorrectedSeries, startTime, endTime float64) (float64, error) {
	if err := checkWindow(startTime, endTime); err != nil {
		return 0, err
	}
	start, err := e.Lookup.resolve(s, "start_time", startTime)
	if err != nil {
		return 0, err
	}
	end, err := e.Lookup.resolve(s, "end_time", endTime)
	if err != nil {
		return 0, err
	}
	return (end.Value - start.Value) / (endTime - startTime) * secondsPerMinute, nil
}

// kinetic is the least-squares slope over [startTime, endTime] per minute.
func (e Engine) kinetic(s domain.CorrectedSeries, startTime, endTime float64) (float64, error) {
	if err := checkWindow(startTime, endTime); err != nil {
		return 0, err
	}

	window := make([]domain.Sample, 0, len(s))
	for _, p := range s {
		if p.Time >= startTime-e.Lookup.Tolerance && p.Time <= endTime+e.Lookup.Tolerance {
			window = append(window, p)
		}
	}

	slope, _, err := FitLine(window)
	if err != nil {
		return 0, err
	}
	return slope * secondsPerMinute, nil
}

func checkWindow(startTime, endTime float64) error {
	if !domain.IsFinite(startTime) {
		return domain.NewInvalidInput("start_time", "must be finite", startTime)
	}
	if !domain.IsFinite(endTime) {
		return domain.NewInvalidInput("end_time", "must be finite", endTime)
	}
	if endTime == startTime {
		return domain.NewCalcError(domain.ErrDivisionByZero, "end_time", "window has zero length", endTime)
	}
	if endTime < startTime {
		return domain.NewInvalidInput("end_time", fmt.Sprintf("precedes start_time %g", startTime), endTime)
	}
	return nil
}

// FitLine fits absorbance = slope*time + intercept by ordinary least squares.
// The fit does not depend on sample order.
func FitLine(samples []domain.Sample) (slope, intercept float64, err error) {
	if len(samples) < 2 {
		return 0, 0, domain.NewCalcError(domain.ErrInsufficientData, "window", "at least 2 samples are required", len(samples))
	}

	ts := domain.AbsorbanceSeries(samples).Times()
	as := domain.AbsorbanceSeries(samples).Absorbances()

	tMean := stat.Mean(ts, nil)
	var sxx float64
	for _, t := range ts {
		sxx += (t - tMean) * (t - tMean)
	}
	if sxx == 0 {
		return 0, 0, domain.NewCalcError(domain.ErrDivisionByZero, "window", "all sample times are identical", tMean)
	}

	intercept, slope = stat.LinearRegression(ts, as, nil, false)
	return slope, intercept, nil
}
