package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, metrics.Track("cleanup").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, metrics.Track("cleanup").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("cleanup", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("cleanup", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("cleanup")))
}

func TestAddItemsIgnoresEmptyBatches(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.AddItems("integrity", 0)
	metrics.AddItems("integrity", 12)

	require.Equal(t, 12.0, testutil.ToFloat64(metrics.items.WithLabelValues("integrity")))

	var nilMetrics *Metrics
	nilMetrics.AddItems("integrity", 3)
	require.NoError(t, nilMetrics.Track("integrity").End(nil))
}
