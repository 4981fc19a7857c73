package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	xhttp "DipScan/pkg/http"
	"DipScan/pkg/util"
)

// httpProviderBase centralizes GET+JSON handling and error classification for
// the HTTP price providers.
type httpProviderBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPProviderBase(baseURL string, client *xhttp.Client) httpProviderBase {
	if client == nil {
		client = xhttp.NewClient()
	}
	return httpProviderBase{baseURL: baseURL, client: client}
}

func (b *httpProviderBase) getJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, dest interface{}) error {
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
	if err != nil {
		return classifyHTTPError(fmt.Errorf("get %s: %w", path, err))
	}
	return nil
}

// classifyHTTPError maps transport failures onto the provider error contract.
func classifyHTTPError(err error) error {
	var se *xhttp.StatusError
	var de *xhttp.DecodeError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusBadRequest):
		return fmt.Errorf("%w: %v", domrepo.ErrUnknownAsset, err)
	case errors.As(err, &de):
		return fmt.Errorf("%w: %v", domrepo.ErrMalformedData, err)
	default:
		return fmt.Errorf("%w: %w", domrepo.ErrDataUnavailable, err)
	}
}

// collapseDaily keeps the last point of each UTC day among consecutive points of
// the same day and trims the result to the most recent days points.
// Out-of-order input is left as is so that validation can reject it.
func collapseDaily(ticker string, points []models.PricePoint, days int) models.PriceSeries {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		p.Date = util.UTCDay(p.Date)
		if n := len(out); n > 0 && util.SameDay(out[n-1].Date, p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return models.PriceSeries{Ticker: ticker, Points: out}.Tail(days)
}
