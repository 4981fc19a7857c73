package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DipScan/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordAsset("ok")
	r.RecordAsset("ok")
	r.RecordAsset(string(models.SkipDataUnavailable))
	r.RecordSignal("BTC-USD", 24.1, models.SignalLikelyDip)
	r.RecordSignal("BTC-USD", 12.0, models.SignalStable)
	r.RecordSinkError("csv")
	r.RecordFetch("yahoo", 150*time.Millisecond)
	r.RecordScan(3 * time.Second)
	r.RecordHTTP("/api/signals", "GET", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.assetsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.assetsTotal.WithLabelValues("data_unavailable")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.averageProb.WithLabelValues("BTC-USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("LIKELY_DIP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sinkErrorsTotal.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/signals", "GET", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "dipscan_fetch_duration_seconds")
	assert.Contains(t, names, "dipscan_scan_duration_seconds")
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
