package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prenatal-assay-engine/internal/domain"
	"github.com/prenatal-assay-engine/internal/logging"
	"github.com/prenatal-assay-engine/internal/metrics"
	"github.com/prenatal-assay-engine/pkg/photometry"
)

// AssayOptions configures the assay service
type AssayOptions struct {
	Engine             photometry.Engine
	AlignmentTolerance float64
}

// AssayOptionsFromConfig maps assay configuration to options
func AssayOptionsFromConfig(cfg domain.AssayConfig) (AssayOptions, error) {
	policy, err := photometry.ParseLookupPolicy(cfg.LookupPolicy)
	if err != nil {
		return AssayOptions{}, err
	}
	return AssayOptions{
		Engine: photometry.Engine{
			Lookup: photometry.Lookup{Policy: policy, Tolerance: cfg.Tolerance},
			Factor: cfg.Factor,
		},
		AlignmentTolerance: cfg.AlignmentTolerance,
	}, nil
}

// AssayRequest holds the readings of one assay. An empty Sub series means a
// single-wavelength reading that is used without correction.
type AssayRequest struct {
	ID      string                   `json:"id,omitempty" yaml:"id,omitempty"`
	Main    domain.AbsorbanceSeries  `json:"main" yaml:"main"`
	Sub     domain.AbsorbanceSeries  `json:"sub,omitempty" yaml:"sub,omitempty"`
	Methods []domain.AssayMethodSpec `json:"methods" yaml:"methods"`
}

// AssayReport holds one result per requested method
type AssayReport struct {
	ID      string               `json:"id" yaml:"id"`
	Samples int                  `json:"samples" yaml:"samples"`
	Results []domain.AssayResult `json:"results" yaml:"results"`
}

// AssayService corrects absorbance traces and evaluates reading methods
type AssayService struct {
	logger  *logrus.Logger
	opts    AssayOptions
	metrics *metrics.Collector
}

// NewAssayService creates a new assay service
func NewAssayService(logger *logrus.Logger, opts AssayOptions, collector *metrics.Collector) *AssayService {
	return &AssayService{
		logger:  logger,
		opts:    opts,
		metrics: collector,
	}
}

// Run corrects the request's traces and evaluates every method on the
// corrected series. The first failing method fails the request.
func (s *AssayService) Run(ctx context.Context, req *AssayRequest) (*AssayReport, error) {
	startTime := time.Now()

	if req == nil {
		err := domain.NewInvalidInput("record", "assay record is empty", nil)
		s.metrics.Observe(metrics.KindAssay, time.Since(startTime), err)
		logging.WithError(logrus.NewEntry(s.logger), err).Warn("Assay computation failed")
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	log := s.logger.WithField(logging.FieldRecordID, id)

	report, err := s.run(ctx, id, req, log)
	s.metrics.Observe(metrics.KindAssay, time.Since(startTime), err)
	if err != nil {
		logging.WithError(log, err).Warn("Assay computation failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"samples":             report.Samples,
		"methods":             len(report.Results),
		logging.FieldDuration: time.Since(startTime),
	}).Info("Assay computation completed")

	return report, nil
}

func (s *AssayService) run(ctx context.Context, id string, req *AssayRequest, log *logrus.Entry) (*AssayReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Methods) == 0 {
		return nil, domain.NewInvalidInput("methods", "at least one method is required", 0)
	}
	for i, spec := range req.Methods {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("methods[%d]: %w", i, err)
		}
	}

	corrected, err := s.correct(req)
	if err != nil {
		return nil, err
	}

	report := &AssayReport{
		ID:      id,
		Samples: len(corrected),
		Results: make([]domain.AssayResult, 0, len(req.Methods)),
	}
	for i, spec := range req.Methods {
		result, err := s.opts.Engine.Compute(corrected, spec)
		if err != nil {
			return nil, fmt.Errorf("methods[%d] %s: %w", i, spec.Method, err)
		}
		log.WithFields(logrus.Fields{
			logging.FieldMethod: spec.Method,
			"value":             result.Value,
			"unit":              result.Unit,
		}).Debug("Assay method evaluated")
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func (s *AssayService) correct(req *AssayRequest) (domain.CorrectedSeries, error) {
	if len(req.Sub) == 0 {
		if len(req.Main) == 0 {
			return nil, domain.NewInvalidInput("main", "series is empty", 0)
		}
		if err := req.Main.Validate(); err != nil {
			return nil, err
		}
		return domain.CorrectedSeries(req.Main), nil
	}
	return photometry.CorrectWithTolerance(req.Main, req.Sub, s.opts.AlignmentTolerance)
}
