package repository

import (
	"context"
	"errors"
	"time"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	"DipScan/pkg/cache"
	applogger "DipScan/pkg/logger"
)

// CachedProvider memoises fetched series per (provider, ticker, days).
// Cache faults degrade to a direct fetch.
type CachedProvider struct {
	next  domrepo.PriceHistoryProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedProvider(next domrepo.PriceHistoryProvider, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedProvider {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, l: l}
}

func (p *CachedProvider) Name() string { return p.next.Name() }

func (p *CachedProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	key := cache.GenerateKeyWithParams("series", p.next.Name(), asset.Ticker, days)

	var cached models.PriceSeries
	err := p.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		p.l.Warn("series cache get failed", applogger.String("key", key), applogger.Error(err))
	}

	series, err := p.next.Fetch(ctx, asset, days)
	if err != nil {
		return series, err
	}
	if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
		p.l.Warn("series cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return series, nil
}
