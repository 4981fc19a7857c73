package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DipScan/internal/domain/models"
)

var (
	// ErrDataUnavailable covers network failures, unknown tickers, empty payloads and open breakers.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrMalformedData covers undecodable payloads and series that fail ordering or price checks.
	ErrMalformedData = errors.New("malformed price data")
	// ErrUnknownAsset is a data-unavailable case that retrying cannot fix.
	ErrUnknownAsset = fmt.Errorf("%w: unknown asset", ErrDataUnavailable)
)

// PriceHistoryProvider returns up to days daily closes ending today, ascending by date.
type PriceHistoryProvider interface {
	Name() string
	Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error)
}

// ReportSink consumes a finished scan report.
type ReportSink interface {
	Name() string
	Write(ctx context.Context, report *models.ScanReport) error
}

// SignalStore persists scan results for later queries.
type SignalStore interface {
	ReportSink
	Init(ctx context.Context) error
	Latest(ctx context.Context, limit int) ([]models.AssetSignal, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordAsset(outcome string)
	RecordFetch(provider string, elapsed time.Duration)
	RecordScan(elapsed time.Duration)
	RecordSignal(ticker string, avg float64, signal models.Signal)
	RecordSinkError(sink string)
}
