package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	xhttp "DipScan/pkg/http"
)

type coinGeckoMarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// CoinGeckoProvider reads daily prices from /coins/{id}/market_chart.
type CoinGeckoProvider struct {
	httpProviderBase
	apiKey     string
	vsCurrency string
}

func NewCoinGeckoProvider(baseURL, apiKey, vsCurrency string, client *xhttp.Client) *CoinGeckoProvider {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &CoinGeckoProvider{
		httpProviderBase: newHTTPProviderBase(baseURL, client),
		apiKey:           apiKey,
		vsCurrency:       vsCurrency,
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

func (p *CoinGeckoProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	if asset.CoinGeckoID == "" {
		return models.PriceSeries{}, fmt.Errorf("%w: no coingecko id for %s", domrepo.ErrUnknownAsset, asset.Ticker)
	}

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": p.apiKey}
	}

	var chart coinGeckoMarketChart
	path := "/coins/" + url.PathEscape(asset.CoinGeckoID) + "/market_chart"
	err := p.getJSON(ctx, path, map[string][]string{
		"vs_currency": {p.vsCurrency},
		"days":        {strconv.Itoa(days)},
		"interval":    {"daily"},
	}, headers, &chart)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if len(chart.Prices) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: coingecko returned no prices for %s", domrepo.ErrUnknownAsset, asset.CoinGeckoID)
	}

	points := make([]models.PricePoint, 0, len(chart.Prices))
	for _, row := range chart.Prices {
		points = append(points, models.PricePoint{
			Date:  time.UnixMilli(int64(row[0])),
			Close: row[1],
		})
	}
	return collapseDaily(asset.Ticker, points, days), nil
}
