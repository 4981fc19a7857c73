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
	"DipScan/pkg/util"
)

type yahooQuote struct {
	Close []*float64 `json:"close"`
}

type yahooAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote    []yahooQuote    `json:"quote"`
				AdjClose []yahooAdjClose `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider reads daily closes from the Yahoo Finance chart endpoint.
type YahooProvider struct {
	httpProviderBase
	now func() time.Time
}

func NewYahooProvider(baseURL string, client *xhttp.Client) *YahooProvider {
	return &YahooProvider{
		httpProviderBase: newHTTPProviderBase(baseURL, client),
		now:              time.Now,
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	start, end := util.LookbackWindow(p.now(), days)

	var resp yahooChartResponse
	err := p.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(asset.Ticker), map[string][]string{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
		"events":   {"div,splits"},
	}, nil, &resp)
	if err != nil {
		return models.PriceSeries{}, err
	}

	if e := resp.Chart.Error; e != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: yahoo %s: %s", domrepo.ErrUnknownAsset, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Timestamp) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: yahoo returned no rows for %s", domrepo.ErrUnknownAsset, asset.Ticker)
	}

	res := resp.Chart.Result[0]
	closes := pickYahooCloses(res.Indicators.AdjClose, res.Indicators.Quote)
	if len(closes) != len(res.Timestamp) {
		return models.PriceSeries{}, fmt.Errorf("%w: %d timestamps for %d closes", domrepo.ErrMalformedData, len(res.Timestamp), len(closes))
	}

	points := make([]models.PricePoint, 0, len(closes))
	for i, ts := range res.Timestamp {
		// rows without a close are gaps, not errors
		if closes[i] == nil {
			continue
		}
		points = append(points, models.PricePoint{Date: time.Unix(ts, 0), Close: *closes[i]})
	}
	return collapseDaily(asset.Ticker, points, days), nil
}

// pickYahooCloses prefers split/dividend adjusted closes when present.
func pickYahooCloses(adj []yahooAdjClose, quote []yahooQuote) []*float64 {
	if len(adj) > 0 && len(adj[0].AdjClose) > 0 {
		return adj[0].AdjClose
	}
	if len(quote) > 0 {
		return quote[0].Close
	}
	return nil
}
