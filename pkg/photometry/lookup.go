package photometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/prenatal-assay-engine/internal/domain"
)

// LookupPolicy selects how a query time is mapped onto the series.
type LookupPolicy string

const (
	// LookupNearest uses the sample closest in time; ties go to the earlier sample.
	LookupNearest LookupPolicy = "nearest"
	// LookupInterpolate interpolates linearly between the bracketing samples.
	LookupInterpolate LookupPolicy = "interpolate"
	// LookupExact requires a sample within the tolerance of the query time.
	LookupExact LookupPolicy = "exact"
)

// ParseLookupPolicy parses a policy name; the empty string means LookupNearest.
func ParseLookupPolicy(s string) (LookupPolicy, error) {
	switch p := LookupPolicy(s); p {
	case "":
		return LookupNearest, nil
	case LookupNearest, LookupInterpolate, LookupExact:
		return p, nil
	default:
		return "", domain.NewInvalidInput("lookup_policy", "unknown lookup policy", s)
	}
}

// Lookup maps query times to series values. Tolerance is in seconds: for
// LookupNearest a positive tolerance bounds the distance to the chosen sample,
// for LookupExact it is the accepted mismatch, and for LookupInterpolate a
// query within tolerance of a sample snaps to it.
type Lookup struct {
	Policy    LookupPolicy
	Tolerance float64
}

// resolved is a query time mapped onto the series. Index is the sample used,
// or the lower bracketing sample when the value was interpolated.
type resolved struct {
	Index        int
	Value        float64
	Interpolated bool
}

func (l Lookup) validate() error {
	if _, err := ParseLookupPolicy(string(l.Policy)); err != nil {
		return err
	}
	if !domain.IsFinite(l.Tolerance) || l.Tolerance < 0 {
		return domain.NewInvalidInput("tolerance", "must be non-negative", l.Tolerance)
	}
	return nil
}

func (l Lookup) resolve(s domain.CorrectedSeries, field string, t float64) (resolved, error) {
	if !domain.IsFinite(t) {
		return resolved{}, domain.NewInvalidInput(field, "must be finite", t)
	}
	if err := l.checkSpan(s, field, t); err != nil {
		return resolved{}, err
	}

	// first index with time >= t
	hi := sort.Search(len(s), func(i int) bool { return s[i].Time >= t })
	nearest := hi
	switch {
	case hi == len(s):
		nearest = len(s) - 1
	case hi > 0 && t-s[hi-1].Time <= s[hi].Time-t:
		nearest = hi - 1
	}
	dist := math.Abs(s[nearest].Time - t)

	switch l.Policy {
	case LookupExact:
		if dist > l.Tolerance {
			return resolved{}, domain.NewOutOfRange(field, "no sample at requested time", t)
		}
		return resolved{Index: nearest, Value: s[nearest].Absorbance}, nil

	case LookupInterpolate:
		if dist <= l.Tolerance || hi == 0 || hi == len(s) {
			return resolved{Index: nearest, Value: s[nearest].Absorbance}, nil
		}
		a, b := s[hi-1], s[hi]
		frac := (t - a.Time) / (b.Time - a.Time)
		return resolved{
			Index:        hi - 1,
			Value:        a.Absorbance + frac*(b.Absorbance-a.Absorbance),
			Interpolated: true,
		}, nil

	default:
		if l.Tolerance > 0 && dist > l.Tolerance {
			return resolved{}, domain.NewOutOfRange(field, fmt.Sprintf("nearest sample is %gs away", dist), t)
		}
		return resolved{Index: nearest, Value: s[nearest].Absorbance}, nil
	}
}

// atOrBefore maps t to the last sample recorded at or before it. A positive
// tolerance admits a sample up to Tolerance after t and bounds how far before
// t the chosen sample may lie.
func (l Lookup) atOrBefore(s domain.CorrectedSeries, field string, t float64) (resolved, error) {
	if !domain.IsFinite(t) {
		return resolved{}, domain.NewInvalidInput(field, "must be finite", t)
	}
	if err := l.checkSpan(s, field, t); err != nil {
		return resolved{}, err
	}

	i := sort.Search(len(s), func(i int) bool { return s[i].Time > t+l.Tolerance }) - 1
	if i < 0 {
		return resolved{}, domain.NewOutOfRange(field, "no sample at or before requested time", t)
	}
	if dist := t - s[i].Time; l.Tolerance > 0 && dist > l.Tolerance {
		return resolved{}, domain.NewOutOfRange(field, fmt.Sprintf("preceding sample is %gs away", dist), t)
	}
	return resolved{Index: i, Value: s[i].Absorbance}, nil
}

func (l Lookup) checkSpan(s domain.CorrectedSeries, field string, t float64) error {
	if len(s) == 0 {
		return domain.NewCalcError(domain.ErrInsufficientData, field, "series is empty", 0)
	}
	first, last := s[0].Time, s[len(s)-1].Time
	if t < first-l.Tolerance || t > last+l.Tolerance {
		return domain.NewOutOfRange(field, fmt.Sprintf("outside series time span [%g,%g]", first, last), t)
	}
	return nil
}
