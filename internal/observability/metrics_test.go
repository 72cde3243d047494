package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RecordsRead.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.RecordsRead))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsRead))
}

func TestMetrics_Names(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.Refreshes))
	require.NoError(t, reg.Register(m.RecordsStored))
	require.NoError(t, reg.Register(m.RegionQueries))

	m.Refreshes.WithLabelValues(OutcomeSuccess).Inc()
	m.RecordsStored.Set(42)
	m.RegionQueries.WithLabelValues(OutcomeUnknownRegion).Inc()

	expected := `
# HELP firewatch_records_stored Detections in the current snapshot.
# TYPE firewatch_records_stored gauge
firewatch_records_stored 42
# HELP firewatch_refreshes_total Snapshot refreshes by outcome.
# TYPE firewatch_refreshes_total counter
firewatch_refreshes_total{outcome="success"} 1
# HELP firewatch_region_queries_total Region summary queries by outcome.
# TYPE firewatch_region_queries_total counter
firewatch_region_queries_total{outcome="unknown_region"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"firewatch_records_stored", "firewatch_refreshes_total", "firewatch_region_queries_total"))
}
