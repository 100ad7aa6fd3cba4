// Package reference holds the population reference data used by the
// screening pipeline. A Data value is built once from configuration and is
// read-only afterwards, so it can be shared across concurrent computations.
package reference

import (
	"fmt"
	"strings"

	"github.com/prenatal-assay-engine/internal/domain"
)

type medianKey struct {
	marker string
	week   int
}

// Data implements domain.MedianProvider, domain.MarkerModelProvider and
// domain.PriorRiskProvider.
type Data struct {
	version string
	medians map[medianKey]float64
	models  map[string]domain.MarkerModel
	priors  *AgePriorTable
}

// New validates cfg and builds the lookup tables.
func New(cfg domain.ReferenceConfig) (*Data, error) {
	d := &Data{
		version: cfg.Version,
		medians: make(map[medianKey]float64, len(cfg.Medians)),
		models:  make(map[string]domain.MarkerModel, len(cfg.Models)),
	}

	for i, m := range cfg.Medians {
		field := fmt.Sprintf("reference.medians[%d]", i)
		if m.Marker == "" {
			return nil, domain.NewInvalidInput(field+".marker", "marker is required", m.Marker)
		}
		if m.Week <= 0 {
			return nil, domain.NewInvalidInput(field+".week", "must be positive", m.Week)
		}
		if !domain.IsFinite(m.Median) || m.Median <= 0 {
			return nil, domain.NewInvalidInput(field+".median", "must be positive", m.Median)
		}
		key := medianKey{marker: markerKey(domain.Marker(m.Marker)), week: m.Week}
		if _, dup := d.medians[key]; dup {
			return nil, domain.NewInvalidInput(field, "duplicate marker/week entry", fmt.Sprintf("%s@%d", m.Marker, m.Week))
		}
		d.medians[key] = m.Median
	}

	for i, m := range cfg.Models {
		field := fmt.Sprintf("reference.models[%d]", i)
		if m.Marker == "" {
			return nil, domain.NewInvalidInput(field+".marker", "marker is required", m.Marker)
		}
		if err := m.Unaffected.Validate(); err != nil {
			return nil, fmt.Errorf("%s.unaffected: %w", field, err)
		}
		if err := m.Affected.Validate(); err != nil {
			return nil, fmt.Errorf("%s.affected: %w", field, err)
		}
		key := markerKey(domain.Marker(m.Marker))
		if _, dup := d.models[key]; dup {
			return nil, domain.NewInvalidInput(field, "duplicate marker model", m.Marker)
		}
		d.models[key] = domain.MarkerModel{Unaffected: m.Unaffected, Affected: m.Affected}
	}

	priors, err := NewAgePriorTable(cfg.AgePriors)
	if err != nil {
		return nil, err
	}
	d.priors = priors

	return d, nil
}

// Version returns the configured reference data version label.
func (d *Data) Version() string {
	return d.version
}

// Median returns the population median of marker in the gestational week.
func (d *Data) Median(marker domain.Marker, week int) (float64, error) {
	if !d.hasMedians(marker) {
		// unknown marker rather than a missing week
		return 0, domain.NewInvalidInput("marker", "no medians for marker", marker)
	}
	median, ok := d.medians[medianKey{marker: markerKey(marker), week: week}]
	if !ok {
		return 0, domain.NewOutOfRange("gestational_week", fmt.Sprintf("no %s median for week", marker), week)
	}
	return median, nil
}

// Model returns the density models of marker.
func (d *Data) Model(marker domain.Marker) (domain.MarkerModel, error) {
	model, ok := d.models[markerKey(marker)]
	if !ok {
		return domain.MarkerModel{}, domain.NewInvalidInput("marker", "no density model for marker", marker)
	}
	return model, nil
}

// HasMarker reports whether a density model is configured for marker.
func (d *Data) HasMarker(marker domain.Marker) bool {
	_, ok := d.models[markerKey(marker)]
	return ok
}

// PriorOdds returns the age-derived prior denominator.
func (d *Data) PriorOdds(age int) (float64, error) {
	return d.priors.PriorOdds(age)
}

func (d *Data) hasMedians(marker domain.Marker) bool {
	k := markerKey(marker)
	for key := range d.medians {
		if key.marker == k {
			return true
		}
	}
	return false
}

// markerKey folds case so "hCG" and "HCG" name the same marker.
func markerKey(m domain.Marker) string {
	return strings.ToLower(strings.TrimSpace(string(m)))
}
