package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsIsSingleton(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	assert.Same(t, a, b)
}

func TestCountersAccumulate(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.ReferenceCacheTotal.WithLabelValues("states", "hit"))
	m.ReferenceCacheTotal.WithLabelValues("states", "hit").Inc()
	m.ReferenceCacheTotal.WithLabelValues("states", "hit").Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(m.ReferenceCacheTotal.WithLabelValues("states", "hit")))
}
