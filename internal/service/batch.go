package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/prenatal-assay-engine/internal/domain"
	"github.com/prenatal-assay-engine/internal/logging"
)

// Outcome is the result of one batch record, in input order. Skipped records
// were never computed because the batch was aborted first.
type Outcome[T any] struct {
	Index     int              `json:"index" yaml:"index"`
	Result    *T               `json:"result,omitempty" yaml:"result,omitempty"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Skipped   bool             `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// BatchSummary counts batch outcomes; Succeeded+Failed+Skipped equals Total.
type BatchSummary struct {
	Total     int           `json:"total" yaml:"total"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// BatchRunner dispatches independent records across a bounded worker pool.
// Records share no state, so no coordination beyond the pool limit is needed.
type BatchRunner struct {
	logger   *logrus.Logger
	workers  int
	failFast bool
}

// NewBatchRunner creates a batch runner from configuration
func NewBatchRunner(logger *logrus.Logger, cfg domain.BatchConfig) *BatchRunner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{
		logger:   logger,
		workers:  workers,
		failFast: cfg.FailFast,
	}
}

// RunBatch applies fn to every item. Record failures are reported in the
// outcomes; with fail-fast the first failure cancels the remaining records
// and is returned. Context cancellation stops dispatching and is returned.
func RunBatch[Req, Res any](ctx context.Context, r *BatchRunner, items []Req, fn func(context.Context, Req) (*Res, error)) ([]Outcome[Res], BatchSummary, error) {
	startTime := time.Now()
	outcomes := make([]Outcome[Res], len(items))
	ran := make([]bool, len(items))
	for i := range outcomes {
		outcomes[i].Index = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ran[i] = true
			res, err := fn(gctx, items[i])
			outcomes[i].Result = res
			if err != nil {
				outcomes[i].Error = err.Error()
				if kind, ok := domain.KindOf(err); ok {
					outcomes[i].ErrorKind = kind
				}
				if r.failFast {
					return fmt.Errorf("record %d: %w", i, err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary := BatchSummary{Total: len(items), Duration: time.Since(startTime)}
	for i := range outcomes {
		o := &outcomes[i]
		if !ran[i] {
			o.Skipped = true
			o.Error = "not computed"
			if err != nil {
				o.Error = "not computed: " + err.Error()
			}
		}
		switch {
		case o.Skipped:
			summary.Skipped++
		case o.Error != "":
			summary.Failed++
		case o.Result != nil:
			summary.Succeeded++
		default:
			o.Error = "no result"
			summary.Failed++
		}
	}

	entry := r.logger.WithFields(logrus.Fields{
		"total":               summary.Total,
		"succeeded":           summary.Succeeded,
		"failed":              summary.Failed,
		"skipped":             summary.Skipped,
		"workers":             r.workers,
		logging.FieldDuration: summary.Duration,
	})
	if err != nil {
		logging.WithError(entry, err).Error("Batch aborted")
	} else {
		entry.Info("Batch completed")
	}

	return outcomes, summary, err
}
