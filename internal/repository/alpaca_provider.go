package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	"DipScan/pkg/util"
)

type cryptoBarsClient interface {
	GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error)
}

// AlpacaProvider reads daily crypto bars from the Alpaca market data API.
type AlpacaProvider struct {
	client cryptoBarsClient
	now    func() time.Time
}

func NewAlpacaProvider(apiKey, apiSecret, baseURL string) *AlpacaProvider {
	return newAlpacaProvider(marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}))
}

func newAlpacaProvider(c cryptoBarsClient) *AlpacaProvider {
	return &AlpacaProvider{client: c, now: time.Now}
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

// Fetch maps "BTC-USD" to Alpaca's "BTC/USD". The SDK call is not context aware,
// so it runs in its own goroutine and the context bounds the wait.
func (p *AlpacaProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	symbol := alpacaSymbol(asset.Ticker)
	start, end := util.LookbackWindow(p.now(), days)

	type result struct {
		bars []marketdata.CryptoBar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := p.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		done <- result{bars, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return models.PriceSeries{}, fmt.Errorf("%w: %w", domrepo.ErrDataUnavailable, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: alpaca %s: %w", domrepo.ErrDataUnavailable, symbol, res.err)
	}
	if len(res.bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: alpaca returned no bars for %s", domrepo.ErrUnknownAsset, symbol)
	}

	points := make([]models.PricePoint, 0, len(res.bars))
	for _, b := range res.bars {
		points = append(points, models.PricePoint{Date: b.Timestamp, Close: b.Close})
	}
	return collapseDaily(asset.Ticker, points, days), nil
}

func alpacaSymbol(ticker string) string {
	if i := strings.LastIndex(ticker, "-"); i > 0 {
		return ticker[:i] + "/" + ticker[i+1:]
	}
	return ticker
}
