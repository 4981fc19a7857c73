package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	pkgch "DipScan/pkg/clickhouse"
	applogger "DipScan/pkg/logger"
	"DipScan/pkg/util"
)

// CHPriceStore serves daily closes stored in ClickHouse and archives fetched series.
type CHPriceStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

func NewCHPriceStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{ch: ch, db: ch.DB(), table: table, l: l, now: time.Now}
}

func (s *CHPriceStore) Name() string { return "clickhouse" }

func (s *CHPriceStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ticker LowCardinality(String),
            date   Date,
            close  Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (ticker, date)`, s.table)}
}

func (s *CHPriceStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, s.Schema())
}

func (s *CHPriceStore) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	from, _ := util.LookbackWindow(s.now(), days)
	q := fmt.Sprintf(`
        SELECT date, close
        FROM %s FINAL
        WHERE ticker = ? AND date >= ?
        ORDER BY date ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, q, asset.Ticker, from)
	if err != nil {
		s.l.Error("clickhouse fetch closes query error",
			applogger.String("table", s.table),
			applogger.String("ticker", asset.Ticker),
			applogger.Error(err),
		)
		return models.PriceSeries{}, fmt.Errorf("%w: query closes: %w", domrepo.ErrDataUnavailable, err)
	}
	defer rows.Close()

	points := make([]models.PricePoint, 0, days)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return models.PriceSeries{}, fmt.Errorf("%w: scan close: %v", domrepo.ErrMalformedData, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: rows: %w", domrepo.ErrDataUnavailable, err)
	}
	if len(points) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: no stored closes for %s", domrepo.ErrUnknownAsset, asset.Ticker)
	}
	return collapseDaily(asset.Ticker, points, days), nil
}

// Save upserts a series; ReplacingMergeTree collapses repeated days.
func (s *CHPriceStore) Save(ctx context.Context, series models.PriceSeries) error {
	rows := make([][]any, 0, len(series.Points))
	for _, p := range series.Points {
		rows = append(rows, []any{series.Ticker, p.Date, p.Close})
	}
	q := fmt.Sprintf("INSERT INTO %s (ticker, date, close)", s.table)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("save closes %s: %w", series.Ticker, err)
	}
	return nil
}

type seriesSaver interface {
	Save(ctx context.Context, series models.PriceSeries) error
}

// ArchivingProvider stores every successfully fetched series as a side effect.
// Archive failures are logged and never fail the fetch.
type ArchivingProvider struct {
	next  domrepo.PriceHistoryProvider
	store seriesSaver
	l     *applogger.Logger
}

func NewArchivingProvider(next domrepo.PriceHistoryProvider, store seriesSaver, l *applogger.Logger) *ArchivingProvider {
	if l == nil {
		l = applogger.Nop()
	}
	return &ArchivingProvider{next: next, store: store, l: l}
}

func (p *ArchivingProvider) Name() string { return p.next.Name() }

func (p *ArchivingProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	series, err := p.next.Fetch(ctx, asset, days)
	if err != nil {
		return series, err
	}
	if err := p.store.Save(ctx, series); err != nil {
		p.l.Warn("archive closes failed", applogger.String("ticker", asset.Ticker), applogger.Error(err))
	}
	return series, nil
}
