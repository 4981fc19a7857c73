package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DipScan/internal/domain/models"
	drepo "DipScan/internal/domain/repository"
	"DipScan/internal/services/dip"
	"DipScan/pkg/metrics"
)

type fakeProvider struct {
	fetch func(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	return f.fetch(ctx, asset, days)
}

// dropSeries rises 0.5% a day and falls 8% every period days; period 0 never falls.
func dropSeries(ticker string, n, period int) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, n)
	price := 100.0
	for i := range points {
		if i > 0 {
			if period > 0 && i%period == 0 {
				price *= 0.92
			} else {
				price *= 1.005
			}
		}
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: price}
	}
	return models.PriceSeries{Ticker: ticker, Points: points}
}

type countingMetrics struct {
	metrics.Nop
	mu       sync.Mutex
	outcomes map[string]int
	sinkErrs map[string]int
	scans    int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, sinkErrs: map[string]int{}}
}

func (m *countingMetrics) RecordAsset(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordSinkError(sink string) {
	m.mu.Lock()
	m.sinkErrs[sink]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordScan(time.Duration) {
	m.mu.Lock()
	m.scans++
	m.mu.Unlock()
}

type captureSink struct {
	name    string
	err     error
	reports []*models.ScanReport
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Write(_ context.Context, r *models.ScanReport) error {
	c.reports = append(c.reports, r)
	return c.err
}

func universe(tickers ...string) []models.Asset {
	out := make([]models.Asset, len(tickers))
	for i, t := range tickers {
		out[i] = models.NewAsset(t, "", "")
	}
	return out
}

func testSettings(u []models.Asset) ScannerSettings {
	return ScannerSettings{
		Universe:        u,
		LookbackDays:    180,
		MinObservations: 30,
		TopN:            2,
		Workers:         4,
		AssetTimeout:    time.Second,
	}
}

func newTestScanner(t *testing.T, p drepo.PriceHistoryProvider, sinks []drepo.ReportSink, m drepo.Metrics, s ScannerSettings) *Scanner {
	t.Helper()
	est, err := dip.NewEstimator(dip.DefaultWindow, dip.DefaultHorizons, dip.HorizonFallback)
	require.NoError(t, err)
	sc, err := NewScanner(p, est, dip.DefaultClassifier(), sinks, m, nil, s)
	require.NoError(t, err)
	return sc
}

var periods = map[string]int{
	"AAA-USD":  10,
	"BBB-USD":  3,
	"CCC-USD":  5,
	"FLAT-USD": 0,
}

func periodProvider() *fakeProvider {
	return &fakeProvider{fetch: func(_ context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		p, ok := periods[a.Ticker]
		if !ok {
			return models.PriceSeries{}, fmt.Errorf("%w: %s", drepo.ErrUnknownAsset, a.Ticker)
		}
		return dropSeries(a.Ticker, days, p), nil
	}}
}

func tickers(signals []models.AssetSignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Asset.Ticker
	}
	return out
}

func TestScanRanksAndClassifies(t *testing.T) {
	sink := &captureSink{name: "capture"}
	m := newCountingMetrics()
	sc := newTestScanner(t, periodProvider(), []drepo.ReportSink{sink}, m,
		testSettings(universe("AAA-USD", "BBB-USD", "CCC-USD", "FLAT-USD")))

	report, err := sc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"BBB-USD", "CCC-USD", "AAA-USD", "FLAT-USD"}, tickers(report.Ranked.Signals))
	for i, s := range report.Ranked.Signals {
		assert.Equal(t, i+1, s.Rank)
		assert.Equal(t, 180, s.Observations)
		for _, p := range s.Probabilities {
			assert.True(t, p.Defined)
			assert.GreaterOrEqual(t, p.Value, 0.0)
			assert.LessOrEqual(t, p.Value, 100.0)
		}
	}

	bySignal := map[string]models.Signal{}
	for _, s := range report.Ranked.Signals {
		bySignal[s.Asset.Ticker] = s.Signal
	}
	assert.Equal(t, models.SignalLikelyDip, bySignal["BBB-USD"])
	assert.Equal(t, models.SignalPossibleDip, bySignal["CCC-USD"])
	assert.Equal(t, models.SignalStable, bySignal["AAA-USD"])
	assert.Equal(t, models.SignalStable, bySignal["FLAT-USD"])
	assert.Equal(t, 0.0, report.Ranked.Signals[3].Average)

	assert.Equal(t, []string{"BBB-USD", "CCC-USD"}, tickers(report.Top))
	require.Len(t, report.Trajectories, 2)
	assert.Len(t, report.Trajectories[0].Points, 179)
	assert.Equal(t, 1, report.Trajectories[0].Points[0].Day)
	require.Len(t, report.Insights, 2)
	assert.True(t, report.Insights[0].Available)
	require.Len(t, report.Profiles, 2)
	assert.Equal(t, "BBB-USD", report.Profiles[0].Asset.Ticker)
	assert.NotEmpty(t, report.Profiles[0].Monthly)
	assert.Greater(t, report.Profiles[0].PeriodAverage, 0.0)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "fake", report.Settings.Provider)
	assert.Equal(t, []int{30, 90, 180}, report.Settings.Horizons)
	assert.Empty(t, report.Skipped)

	require.Len(t, sink.reports, 1)
	assert.Same(t, report, sink.reports[0])
	assert.Equal(t, 4, m.outcomes["ok"])
	assert.Equal(t, 1, m.scans)
}

func TestScanSkipsWithReasons(t *testing.T) {
	p := &fakeProvider{fetch: func(_ context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		switch a.Ticker {
		case "GONE-USD":
			return models.PriceSeries{}, fmt.Errorf("%w: gone", drepo.ErrUnknownAsset)
		case "DOWN-USD":
			return models.PriceSeries{}, fmt.Errorf("%w: 503", drepo.ErrDataUnavailable)
		case "JUNK-USD":
			return models.PriceSeries{}, fmt.Errorf("%w: bad json", drepo.ErrMalformedData)
		case "NEW-USD":
			return dropSeries(a.Ticker, 29, 3), nil
		case "BAD-USD":
			s := dropSeries(a.Ticker, 60, 3)
			s.Points[10].Close = 0
			return s, nil
		case "BACK-USD":
			s := dropSeries(a.Ticker, 60, 3)
			s.Points[20].Date = s.Points[19].Date
			return s, nil
		}
		return dropSeries(a.Ticker, days, 5), nil
	}}
	m := newCountingMetrics()
	sc := newTestScanner(t, p, nil, m,
		testSettings(universe("GONE-USD", "OK-USD", "DOWN-USD", "JUNK-USD", "NEW-USD", "BAD-USD", "BACK-USD")))

	report, err := sc.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"OK-USD"}, tickers(report.Ranked.Signals))
	require.Len(t, report.Skipped, 6)

	reasons := map[string]models.SkipReason{}
	for _, s := range report.Skipped {
		reasons[s.Asset.Ticker] = s.Reason
		assert.NotEmpty(t, s.Error)
	}
	assert.Equal(t, models.SkipDataUnavailable, reasons["GONE-USD"])
	assert.Equal(t, models.SkipDataUnavailable, reasons["DOWN-USD"])
	assert.Equal(t, models.SkipMalformedData, reasons["JUNK-USD"])
	assert.Equal(t, models.SkipInsufficientHistory, reasons["NEW-USD"])
	assert.Equal(t, models.SkipMalformedData, reasons["BAD-USD"])
	assert.Equal(t, models.SkipMalformedData, reasons["BACK-USD"])

	// skips keep universe order
	assert.Equal(t, "GONE-USD", report.Skipped[0].Asset.Ticker)
	assert.Equal(t, 4, report.Skipped[3].Position)
	assert.Equal(t, 29, report.Skipped[3].Observations)

	assert.Equal(t, 1, m.outcomes["ok"])
	assert.Equal(t, 2, m.outcomes["data_unavailable"])
	assert.Equal(t, 3, m.outcomes["malformed_data"])
	assert.Equal(t, 1, m.outcomes["insufficient_history"])
}

func TestScanTiesKeepUniverseOrderUnderParallelWorkers(t *testing.T) {
	u := universe("T0-USD", "T1-USD", "T2-USD", "T3-USD", "T4-USD", "T5-USD", "T6-USD", "T7-USD")
	p := &fakeProvider{fetch: func(ctx context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		// later assets finish first
		var pos int
		_, _ = fmt.Sscanf(a.Ticker, "T%d-USD", &pos)
		time.Sleep(time.Duration(len(u)-pos) * 3 * time.Millisecond)
		return dropSeries(a.Ticker, days, 4), nil
	}}
	s := testSettings(u)
	s.Workers = 8
	sc := newTestScanner(t, p, nil, nil, s)

	report, err := sc.Scan(context.Background())
	require.NoError(t, err)

	want := make([]string, len(u))
	for i, a := range u {
		want[i] = a.Ticker
	}
	assert.Equal(t, want, tickers(report.Ranked.Signals))
	for _, sig := range report.Ranked.Signals[1:] {
		assert.Equal(t, report.Ranked.Signals[0].Average, sig.Average)
	}
}

func TestScanFailureOfOneAssetKeepsRelativeOrder(t *testing.T) {
	u := universe("AAA-USD", "BBB-USD", "CCC-USD", "FLAT-USD")

	full, err := newTestScanner(t, periodProvider(), nil, nil, testSettings(u)).Scan(context.Background())
	require.NoError(t, err)

	failing := &fakeProvider{fetch: func(ctx context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		if a.Ticker == "CCC-USD" {
			return models.PriceSeries{}, drepo.ErrDataUnavailable
		}
		return periodProvider().Fetch(ctx, a, days)
	}}
	partial, err := newTestScanner(t, failing, nil, nil, testSettings(u)).Scan(context.Background())
	require.NoError(t, err)

	var expected []string
	for _, tk := range tickers(full.Ranked.Signals) {
		if tk != "CCC-USD" {
			expected = append(expected, tk)
		}
	}
	assert.Equal(t, expected, tickers(partial.Ranked.Signals))
}

func TestScanAllSkippedIsAValidReport(t *testing.T) {
	p := &fakeProvider{fetch: func(context.Context, models.Asset, int) (models.PriceSeries, error) {
		return models.PriceSeries{}, drepo.ErrDataUnavailable
	}}
	sink := &captureSink{name: "capture"}
	sc := newTestScanner(t, p, []drepo.ReportSink{sink}, nil, testSettings(universe("A-USD", "B-USD")))

	report, err := sc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Ranked.Len())
	assert.Empty(t, report.Top)
	assert.Empty(t, report.Trajectories)
	assert.Empty(t, report.Profiles)
	assert.Len(t, report.Skipped, 2)
	assert.Len(t, sink.reports, 1)
}

func TestScanAppliesAssetTimeout(t *testing.T) {
	p := &fakeProvider{fetch: func(ctx context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		if a.Ticker == "SLOW-USD" {
			<-ctx.Done()
			return models.PriceSeries{}, fmt.Errorf("%w: %w", drepo.ErrDataUnavailable, ctx.Err())
		}
		return dropSeries(a.Ticker, days, 5), nil
	}}
	s := testSettings(universe("SLOW-USD", "FAST-USD"))
	s.AssetTimeout = 20 * time.Millisecond
	report, err := newTestScanner(t, p, nil, nil, s).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"FAST-USD"}, tickers(report.Ranked.Signals))
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, models.SkipDataUnavailable, report.Skipped[0].Reason)
}

func TestScanJoinsSinkErrorsAfterAllSinksRan(t *testing.T) {
	broken := &captureSink{name: "broken", err: errors.New("disk full")}
	alsoBroken := &captureSink{name: "kafka", err: errors.New("no leader")}
	ok := &captureSink{name: "ok"}
	m := newCountingMetrics()
	sc := newTestScanner(t, periodProvider(), []drepo.ReportSink{broken, ok, alsoBroken}, m,
		testSettings(universe("AAA-USD", "BBB-USD")))

	report, err := sc.Scan(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.ErrorContains(t, err, "sink broken: disk full")
	assert.ErrorContains(t, err, "sink kafka: no leader")
	assert.Len(t, ok.reports, 1)
	assert.Equal(t, []string{"BBB-USD", "AAA-USD"}, tickers(report.Ranked.Signals))
	assert.Equal(t, 1, m.sinkErrs["broken"])
	assert.Equal(t, 1, m.sinkErrs["kafka"])
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &captureSink{name: "capture"}
	_, err := newTestScanner(t, periodProvider(), []drepo.ReportSink{sink}, nil, testSettings(universe("AAA-USD"))).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.reports)
}

func TestScannerSettingsValidate(t *testing.T) {
	base := testSettings(universe("AAA-USD"))
	require.NoError(t, base.Validate())

	cases := map[string]func(*ScannerSettings){
		"empty universe": func(s *ScannerSettings) { s.Universe = nil },
		"lookback":       func(s *ScannerSettings) { s.LookbackDays = 0 },
		"min obs":        func(s *ScannerSettings) { s.MinObservations = -1 },
		"top n":          func(s *ScannerSettings) { s.TopN = 0 },
		"workers":        func(s *ScannerSettings) { s.Workers = 0 },
		"timeout":        func(s *ScannerSettings) { s.AssetTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := base
			mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}

	est, err := dip.NewEstimator(7, []int{30}, dip.HorizonFallback)
	require.NoError(t, err)
	_, err = NewScanner(nil, est, dip.DefaultClassifier(), nil, nil, nil, base)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestNewScannerRejectsClassifierThresholds(t *testing.T) {
	est, err := dip.NewEstimator(dip.DefaultWindow, dip.DefaultHorizons, dip.HorizonFallback)
	require.NoError(t, err)
	s := testSettings(universe("AAA-USD"))

	for name, c := range map[string]dip.Classifier{
		"zero value": {},
		"inverted":   {Likely: 10, Possible: 20},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewScanner(periodProvider(), est, c, nil, nil, nil, s)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.ErrorIs(t, err, dip.ErrInvalidParameter)
		})
	}

	_, err = NewScanner(periodProvider(), est, dip.Classifier{Likely: 30, Possible: 10}, nil, nil, nil, s)
	assert.NoError(t, err)
}

func TestScanShortHistoryScoresMiddleHorizonZero(t *testing.T) {
	p := &fakeProvider{fetch: func(_ context.Context, a models.Asset, days int) (models.PriceSeries, error) {
		if a.Ticker == "YOUNG-USD" {
			return dropSeries(a.Ticker, 60, 3), nil
		}
		return dropSeries(a.Ticker, days, 3), nil
	}}
	report, err := newTestScanner(t, p, nil, nil, testSettings(universe("OLD-USD", "YOUNG-USD"))).Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Ranked.Len())

	var young models.AssetSignal
	for _, sig := range report.Ranked.Signals {
		if sig.Asset.Ticker == "YOUNG-USD" {
			young = sig
		}
	}
	require.Equal(t, 60, young.Observations)
	require.Len(t, young.Probabilities, 3)

	p30, p90, p180 := young.Probabilities[0], young.Probabilities[1], young.Probabilities[2]
	assert.Equal(t, models.HorizonProbability{Horizon: 90, Value: 0, Defined: true}, p90)
	assert.Greater(t, p30.Value, 0.0)
	assert.Greater(t, p180.Value, 0.0)
	assert.Len(t, young.Returns, 59)
	assert.Equal(t, dip.Round2((p30.Value+p180.Value)/3), young.Average)
}
