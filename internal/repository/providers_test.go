package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	xhttp "DipScan/pkg/http"
)

var (
	day7  = time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	day8  = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	fixed = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
)

type stubProvider struct {
	name  string
	calls atomic.Int32
	fetch func(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	s.calls.Add(1)
	return s.fetch(ctx, asset, days)
}

func sampleSeries(ticker string) models.PriceSeries {
	return models.PriceSeries{Ticker: ticker, Points: []models.PricePoint{
		{Date: day7, Close: 100},
		{Date: day8, Close: 102},
	}}
}

func TestYahooProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/BTC-USD", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, fmt.Sprint(fixed.Unix()), r.URL.Query().Get("period2"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1709769600,1709856000,1709928000,1709942400],
			"indicators":{
				"quote":[{"close":[1,2,3,4]}],
				"adjclose":[{"adjclose":[100,101,102,null]}]
			}}],"error":null}}`))
	}))
	defer srv.Close()

	p := NewYahooProvider(srv.URL, xhttp.NewClient())
	p.now = func() time.Time { return fixed }

	series, err := p.Fetch(context.Background(), models.NewAsset("BTC-USD", "Bitcoin", ""), 30)
	require.NoError(t, err)
	assert.Equal(t, sampleSeries("BTC-USD"), series)
}

func TestYahooProviderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, domrepo.ErrUnknownAsset},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, domrepo.ErrUnknownAsset},
		{"not found", http.StatusNotFound, `{}`, domrepo.ErrUnknownAsset},
		{"length mismatch", http.StatusOK, `{"chart":{"result":[{"timestamp":[1709769600,1709856000],"indicators":{"quote":[{"close":[1]}]}}]}}`, domrepo.ErrMalformedData},
		{"bad json", http.StatusOK, `{"chart":`, domrepo.ErrMalformedData},
		{"server error", http.StatusBadGateway, `oops`, domrepo.ErrDataUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewYahooProvider(srv.URL, nil)
			_, err := p.Fetch(context.Background(), models.NewAsset("NOPE-USD", "", ""), 30)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestServerErrorIsNotUnknownAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewYahooProvider(srv.URL, nil).Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 10)
	assert.ErrorIs(t, err, domrepo.ErrDataUnavailable)
	assert.NotErrorIs(t, err, domrepo.ErrUnknownAsset)
}

func TestCoinGeckoProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"prices":[[1709769600000,100],[1709856000000,101],[1709928000000,102]]}`))
	}))
	defer srv.Close()

	p := NewCoinGeckoProvider(srv.URL, "demo-key", "", nil)
	series, err := p.Fetch(context.Background(), models.NewAsset("BTC-USD", "Bitcoin", "bitcoin"), 30)
	require.NoError(t, err)
	assert.Equal(t, sampleSeries("BTC-USD"), series)
}

func TestCoinGeckoProviderUnknownAsset(t *testing.T) {
	p := NewCoinGeckoProvider("http://127.0.0.1:1", "", "usd", nil)
	_, err := p.Fetch(context.Background(), models.NewAsset("XYZ-USD", "", ""), 30)
	assert.ErrorIs(t, err, domrepo.ErrUnknownAsset)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[]}`))
	}))
	defer srv.Close()
	_, err = NewCoinGeckoProvider(srv.URL, "", "usd", nil).Fetch(context.Background(), models.NewAsset("XYZ-USD", "", "xyz"), 30)
	assert.ErrorIs(t, err, domrepo.ErrUnknownAsset)
}

type fakeBars struct {
	symbol string
	bars   []marketdata.CryptoBar
	err    error
	block  chan struct{}
}

func (f *fakeBars) GetCryptoBars(symbol string, _ marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error) {
	f.symbol = symbol
	if f.block != nil {
		<-f.block
	}
	return f.bars, f.err
}

func TestAlpacaProviderFetch(t *testing.T) {
	fake := &fakeBars{bars: []marketdata.CryptoBar{
		{Timestamp: day7, Close: 100},
		{Timestamp: day8, Close: 102},
	}}
	p := newAlpacaProvider(fake)
	p.now = func() time.Time { return fixed }

	series, err := p.Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", fake.symbol)
	assert.Equal(t, sampleSeries("BTC-USD"), series)
}

func TestAlpacaProviderErrors(t *testing.T) {
	_, err := newAlpacaProvider(&fakeBars{}).Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	assert.ErrorIs(t, err, domrepo.ErrUnknownAsset)

	_, err = newAlpacaProvider(&fakeBars{err: errors.New("503")}).Fetch(context.Background(), models.NewAsset("BTC-USD", "", ""), 30)
	assert.ErrorIs(t, err, domrepo.ErrDataUnavailable)
	assert.NotErrorIs(t, err, domrepo.ErrUnknownAsset)

	block := make(chan struct{})
	defer close(block)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newAlpacaProvider(&fakeBars{block: block}).Fetch(ctx, models.NewAsset("BTC-USD", "", ""), 30)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAlpacaSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USD", alpacaSymbol("BTC-USD"))
	assert.Equal(t, "SHIB", alpacaSymbol("SHIB"))
}

func TestCollapseDailyKeepsLastOfDayAndTrims(t *testing.T) {
	points := []models.PricePoint{
		{Date: day7.Add(-24 * time.Hour), Close: 90},
		{Date: day7.Add(3 * time.Hour), Close: 99},
		{Date: day7.Add(23 * time.Hour), Close: 100},
		{Date: day8, Close: 102},
	}
	series := collapseDaily("ETH-USD", points, 2)
	assert.Equal(t, sampleSeries("ETH-USD"), series)
}

func TestCollapseDailyLeavesDisorderForValidation(t *testing.T) {
	series := collapseDaily("ETH-USD", []models.PricePoint{
		{Date: day8, Close: 1},
		{Date: day7, Close: 2},
	}, 10)
	assert.Equal(t, 2, series.Len())
	assert.Error(t, series.Validate())
}
