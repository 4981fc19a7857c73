package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DipScan/internal/domain/models"
	domrepo "DipScan/internal/domain/repository"
	"DipScan/internal/service/breaker"
	"DipScan/internal/service/ratelimit"
	applogger "DipScan/pkg/logger"
)

type ResilientOption func(*ResilientProvider)

func WithRetries(n int, backoff time.Duration) ResilientOption {
	return func(p *ResilientProvider) {
		if n >= 0 {
			p.retries = n
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

func WithLimiter(l *ratelimit.Limiter) ResilientOption {
	return func(p *ResilientProvider) { p.limiter = l }
}

func WithBreaker(b *breaker.Breaker) ResilientOption {
	return func(p *ResilientProvider) { p.breaker = b }
}

func WithFetchMetrics(m domrepo.Metrics) ResilientOption {
	return func(p *ResilientProvider) { p.metrics = m }
}

func WithProviderLogger(l *applogger.Logger) ResilientOption {
	return func(p *ResilientProvider) { p.l = l }
}

// ResilientProvider adds rate limiting, a circuit breaker and bounded retries
// around another provider.
type ResilientProvider struct {
	next    domrepo.PriceHistoryProvider
	limiter *ratelimit.Limiter
	breaker *breaker.Breaker
	metrics domrepo.Metrics
	l       *applogger.Logger
	retries int
	backoff time.Duration
}

func NewResilientProvider(next domrepo.PriceHistoryProvider, opts ...ResilientOption) *ResilientProvider {
	p := &ResilientProvider{
		next:    next,
		retries: 2,
		backoff: 250 * time.Millisecond,
		l:       applogger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PermanentFetchError reports errors that a retry cannot fix and that say
// nothing about upstream health.
func PermanentFetchError(err error) bool {
	return errors.Is(err, domrepo.ErrUnknownAsset) ||
		errors.Is(err, domrepo.ErrMalformedData) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (p *ResilientProvider) Name() string { return p.next.Name() }

func (p *ResilientProvider) Fetch(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.PriceSeries{}, fmt.Errorf("%w: %w", domrepo.ErrDataUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * p.backoff):
			}
		}

		series, err := p.fetchOnce(ctx, asset, days)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if PermanentFetchError(err) || errors.Is(err, breaker.ErrOpen) {
			break
		}
		p.l.Debug("fetch attempt failed",
			applogger.String("provider", p.next.Name()),
			applogger.String("ticker", asset.Ticker),
			applogger.Int("attempt", attempt+1),
			applogger.Error(err),
		)
	}

	if errors.Is(lastErr, breaker.ErrOpen) {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %w", domrepo.ErrDataUnavailable, p.next.Name(), lastErr)
	}
	if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
		if !errors.Is(lastErr, domrepo.ErrDataUnavailable) {
			lastErr = fmt.Errorf("%w: %w", domrepo.ErrDataUnavailable, lastErr)
		}
	}
	return models.PriceSeries{}, lastErr
}

func (p *ResilientProvider) fetchOnce(ctx context.Context, asset models.Asset, days int) (models.PriceSeries, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.next.Name()); err != nil {
			return models.PriceSeries{}, fmt.Errorf("%w: rate limit wait: %w", domrepo.ErrDataUnavailable, err)
		}
	}

	start := time.Now()
	var series models.PriceSeries
	call := func() error {
		var err error
		series, err = p.next.Fetch(ctx, asset, days)
		return err
	}

	var err error
	if p.breaker != nil {
		err = p.breaker.Execute(call)
	} else {
		err = call()
	}
	if p.metrics != nil {
		p.metrics.RecordFetch(p.next.Name(), time.Since(start))
	}
	return series, err
}

// BreakerSuccess is the breaker success predicate for provider calls.
func BreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, domrepo.ErrUnknownAsset) || errors.Is(err, domrepo.ErrMalformedData)
}
