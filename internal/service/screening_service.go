package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prenatal-assay-engine/internal/domain"
	"github.com/prenatal-assay-engine/internal/logging"
	"github.com/prenatal-assay-engine/internal/metrics"
	"github.com/prenatal-assay-engine/pkg/screening"
)

// ReferenceData is the read-only reference data the screening service consumes.
type ReferenceData interface {
	domain.MedianProvider
	domain.MarkerModelProvider
	domain.PriorRiskProvider
	HasMarker(marker domain.Marker) bool
	Version() string
}

// ScreeningOptions configures the screening service
type ScreeningOptions struct {
	WeightModel     screening.WeightModel
	RiskCutoff      float64
	DegeneracyFloor float64
	// Markers restricts accepted readings; empty accepts every modelled marker.
	Markers []domain.Marker
}

// ScreeningOptionsFromConfig maps screening configuration to options
func ScreeningOptionsFromConfig(cfg domain.ScreeningConfig) ScreeningOptions {
	markers := make([]domain.Marker, 0, len(cfg.Markers))
	for _, m := range cfg.Markers {
		markers = append(markers, domain.Marker(m))
	}
	return ScreeningOptions{
		WeightModel:     screening.WeightModel{Intercept: cfg.WeightIntercept, Slope: cfg.WeightSlope},
		RiskCutoff:      cfg.RiskCutoff,
		DegeneracyFloor: cfg.DegeneracyFloor,
		Markers:         markers,
	}
}

// MarkerReading is one raw marker value of a screening request. A positive
// Median overrides the reference median for the gestational week.
type MarkerReading struct {
	Marker domain.Marker `json:"marker" yaml:"marker"`
	Value  float64       `json:"value" yaml:"value"`
	Median float64       `json:"median,omitempty" yaml:"median,omitempty"`
}

// ScreeningRequest is the input for one patient. A non-zero PriorOdds
// overrides the age-derived prior and must be positive.
type ScreeningRequest struct {
	ID              string                `json:"id,omitempty" yaml:"id,omitempty"`
	Profile         domain.PatientProfile `json:"profile" yaml:"profile"`
	GestationalWeek int                   `json:"gestational_week" yaml:"gestational_week"`
	Readings        []MarkerReading       `json:"readings" yaml:"readings"`
	PriorOdds       float64               `json:"prior_odds,omitempty" yaml:"prior_odds,omitempty"`
}

// ScreeningResult is the outcome of a screening request
type ScreeningResult struct {
	ID               string                         `json:"id" yaml:"id"`
	Markers          []screening.MarkerContribution `json:"markers" yaml:"markers"`
	Risk             domain.RiskResult              `json:"risk" yaml:"risk"`
	Display          string                         `json:"display" yaml:"display"`
	Category         domain.RiskCategory            `json:"category" yaml:"category"`
	ReferenceVersion string                         `json:"reference_version,omitempty" yaml:"reference_version,omitempty"`
}

// ScreeningService runs the T21 screening pipeline for single patients
type ScreeningService struct {
	logger    *logrus.Logger
	reference ReferenceData
	opts      ScreeningOptions
	enabled   map[string]bool
	metrics   *metrics.Collector
}

// NewScreeningService creates a new screening service
func NewScreeningService(logger *logrus.Logger, reference ReferenceData, opts ScreeningOptions, collector *metrics.Collector) *ScreeningService {
	var enabled map[string]bool
	if len(opts.Markers) > 0 {
		enabled = make(map[string]bool, len(opts.Markers))
		for _, m := range opts.Markers {
			enabled[strings.ToLower(string(m))] = true
		}
	}
	return &ScreeningService{
		logger:    logger,
		reference: reference,
		opts:      opts,
		enabled:   enabled,
		metrics:   collector,
	}
}

// Screen normalizes every reading, multiplies the per-marker likelihood
// ratios and applies them to the prior risk.
func (s *ScreeningService) Screen(ctx context.Context, req *ScreeningRequest) (*ScreeningResult, error) {
	startTime := time.Now()

	if req == nil {
		err := domain.NewInvalidInput("record", "screening record is empty", nil)
		s.metrics.Observe(metrics.KindScreening, time.Since(startTime), err)
		logging.WithError(logrus.NewEntry(s.logger), err).Warn("Screening failed")
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	log := s.logger.WithField(logging.FieldRecordID, id)

	result, err := s.screen(ctx, id, req, log)
	s.metrics.Observe(metrics.KindScreening, time.Since(startTime), err)
	if err != nil {
		logging.WithError(log, err).Warn("Screening failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"likelihood_ratio":    result.Risk.LikelihoodRatio,
		"prior_odds":          result.Risk.PriorOdds,
		"posterior_odds":      result.Risk.PosteriorOdds,
		"category":            result.Category,
		logging.FieldDuration: time.Since(startTime),
	}).Info("Screening completed")

	return result, nil
}

func (s *ScreeningService) screen(ctx context.Context, id string, req *ScreeningRequest, log *logrus.Entry) (*ScreeningResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if len(req.Readings) == 0 {
		return nil, domain.NewCalcError(domain.ErrInsufficientData, "readings", "at least one marker reading is required", 0)
	}

	seen := make(map[string]bool, len(req.Readings))
	contributions := make([]screening.MarkerContribution, 0, len(req.Readings))
	ratios := make([]float64, 0, len(req.Readings))

	for _, reading := range req.Readings {
		key := strings.ToLower(string(reading.Marker))
		if seen[key] {
			return nil, domain.NewInvalidInput("readings", "duplicate marker", reading.Marker)
		}
		seen[key] = true
		if s.enabled != nil && !s.enabled[key] {
			return nil, domain.NewInvalidInput("readings", "marker not enabled for screening", reading.Marker)
		}
		if !s.reference.HasMarker(reading.Marker) {
			return nil, domain.NewInvalidInput("readings", "no reference model for marker", reading.Marker)
		}

		contribution, err := s.evaluateReading(req, reading)
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", reading.Marker, err)
		}

		log.WithFields(logrus.Fields{
			logging.FieldMarker: reading.Marker,
			"corrected_mom":     contribution.MoM.CorrectedMoM,
			"likelihood_ratio":  contribution.LikelihoodRatio,
			"clamped":           contribution.Clamped,
		}).Debug("Marker evaluated")

		contributions = append(contributions, contribution)
		ratios = append(ratios, contribution.LikelihoodRatio)
	}

	totalLR, err := screening.CombineLikelihoodRatios(ratios...)
	if err != nil {
		return nil, err
	}

	prior := req.PriorOdds
	switch {
	case prior == 0:
		prior, err = s.reference.PriorOdds(req.Profile.Age)
		if err != nil {
			return nil, fmt.Errorf("prior risk: %w", err)
		}
	case !domain.IsFinite(prior) || prior < 0:
		return nil, domain.NewInvalidInput("prior_odds", "override must be positive", prior)
	}

	risk, err := screening.CombineRisk(prior, totalLR)
	if err != nil {
		return nil, err
	}

	return &ScreeningResult{
		ID:               id,
		Markers:          contributions,
		Risk:             risk,
		Display:          risk.String(),
		Category:         risk.Categorize(s.opts.RiskCutoff),
		ReferenceVersion: s.reference.Version(),
	}, nil
}

func (s *ScreeningService) evaluateReading(req *ScreeningRequest, reading MarkerReading) (screening.MarkerContribution, error) {
	median := reading.Median
	if median <= 0 {
		var err error
		median, err = s.reference.Median(reading.Marker, req.GestationalWeek)
		if err != nil {
			return screening.MarkerContribution{}, err
		}
	}

	model, err := s.reference.Model(reading.Marker)
	if err != nil {
		return screening.MarkerContribution{}, err
	}

	mom, err := screening.NormalizeWithModel(domain.BiomarkerMeasurement{
		Name:             reading.Marker,
		Value:            reading.Value,
		PopulationMedian: median,
	}, req.Profile, s.opts.WeightModel)
	if err != nil {
		return screening.MarkerContribution{}, err
	}

	return screening.EvaluateMarker(reading.Marker, mom, model, s.opts.DegeneracyFloor)
}
