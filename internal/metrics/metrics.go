// Package metrics counts screening and assay computations on a dedicated
// Prometheus registry:
//   - assay_engine_computations_total: Counter with kind and outcome labels
//   - assay_engine_errors_total: Counter with kind and error_kind labels
//   - assay_engine_computation_duration_seconds: Histogram with kind label
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prenatal-assay-engine/internal/domain"
)

// Computation kinds
const (
	KindScreening = "screening"
	KindAssay     = "assay"
)

// Collector owns the registry and the computation metrics.
type Collector struct {
	registry     *prometheus.Registry
	Computations *prometheus.CounterVec
	Errors       *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
}

// NewCollector creates and registers the metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assay_engine_computations_total",
				Help: "Total computations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assay_engine_errors_total",
				Help: "Failed computations by error kind",
			},
			[]string{"kind", "error_kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assay_engine_computation_duration_seconds",
				Help:    "Computation latency",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"kind"},
		),
	}

	c.registry.MustRegister(c.Computations, c.Errors, c.Duration)
	return c
}

// Observe records one computation. A nil collector is a no-op.
func (c *Collector) Observe(kind string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	c.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err == nil {
		c.Computations.WithLabelValues(kind, "success").Inc()
		return
	}
	c.Computations.WithLabelValues(kind, "error").Inc()

	errKind := "UNKNOWN"
	if k, ok := domain.KindOf(err); ok {
		errKind = string(k)
	}
	c.Errors.WithLabelValues(kind, errKind).Inc()
}

// CounterSample is one counter value with its labels.
type CounterSample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Counters gathers all counter samples, sorted by name.
func (c *Collector) Counters() ([]CounterSample, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []CounterSample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			out = append(out, CounterSample{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
