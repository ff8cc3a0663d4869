package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordSyncSuccess(t *testing.T) {
	success := syncRunsCounter.WithLabelValues("success")
	beforeRuns := counterValue(t, success)
	beforeInserted := counterValue(t, insertedCounter)

	latest := time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)
	RecordSyncSuccess(3, 2, time.Second, latest)

	require.Equal(t, beforeRuns+1, counterValue(t, success))
	require.Equal(t, beforeInserted+2, counterValue(t, insertedCounter))

	var m dto.Metric
	require.NoError(t, lastRunGauge.Write(&m))
	require.Equal(t, float64(latest.Unix()), m.GetGauge().GetValue())
}

func TestRecordTokenRefreshLabels(t *testing.T) {
	failure := tokenRefreshCounter.WithLabelValues("failure")
	before := counterValue(t, failure)
	RecordTokenRefresh(false)
	require.Equal(t, before+1, counterValue(t, failure))
}
