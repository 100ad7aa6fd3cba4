package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-assay-engine/internal/domain"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector()

	c.Observe(KindAssay, time.Millisecond, nil)
	c.Observe(KindAssay, time.Millisecond, nil)
	c.Observe(KindAssay, time.Millisecond, domain.NewOutOfRange("point_time", "outside", 99.0))
	c.Observe(KindScreening, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Computations.WithLabelValues(KindAssay, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Computations.WithLabelValues(KindAssay, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Errors.WithLabelValues(KindAssay, "OUT_OF_RANGE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Errors.WithLabelValues(KindScreening, "UNKNOWN")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() { c.Observe(KindAssay, time.Second, nil) })
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	c.Observe(KindScreening, time.Microsecond, nil)
	c.Observe(KindScreening, time.Microsecond, domain.NewInvalidInput("age", "too young", 12))

	samples, err := c.Counters()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, s := range samples {
		found[s.Name+"/"+s.Labels["outcome"]+s.Labels["error_kind"]] = s.Value
	}
	assert.Equal(t, 1.0, found["assay_engine_computations_total/success"])
	assert.Equal(t, 1.0, found["assay_engine_computations_total/error"])
	assert.Equal(t, 1.0, found["assay_engine_errors_total/INVALID_INPUT"])
}
