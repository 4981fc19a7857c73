package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"DipScan/internal/domain/models"
	drepo "DipScan/internal/domain/repository"
	"DipScan/internal/services/dip"
	"DipScan/internal/services/features"
	applogger "DipScan/pkg/logger"
)

var ErrInvalidSettings = errors.New("invalid scanner settings")

// ScannerSettings carries the universe and scan limits into the orchestration.
type ScannerSettings struct {
	Universe        []models.Asset
	LookbackDays    int
	MinObservations int
	TopN            int
	Workers         int
	AssetTimeout    time.Duration
}

func (s ScannerSettings) Validate() error {
	switch {
	case len(s.Universe) == 0:
		return fmt.Errorf("%w: empty universe", ErrInvalidSettings)
	case s.LookbackDays <= 0:
		return fmt.Errorf("%w: lookback days %d", ErrInvalidSettings, s.LookbackDays)
	case s.MinObservations <= 0:
		return fmt.Errorf("%w: min observations %d", ErrInvalidSettings, s.MinObservations)
	case s.TopN <= 0:
		return fmt.Errorf("%w: top n %d", ErrInvalidSettings, s.TopN)
	case s.Workers <= 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidSettings, s.Workers)
	case s.AssetTimeout <= 0:
		return fmt.Errorf("%w: asset timeout %s", ErrInvalidSettings, s.AssetTimeout)
	}
	return nil
}

// Scanner fetches, scores, ranks and reports every asset of the universe.
type Scanner struct {
	provider   drepo.PriceHistoryProvider
	estimator  *dip.Estimator
	classifier dip.Classifier
	sinks      []drepo.ReportSink
	metrics    drepo.Metrics
	l          *applogger.Logger
	settings   ScannerSettings
	now        func() time.Time
}

func NewScanner(
	provider drepo.PriceHistoryProvider,
	estimator *dip.Estimator,
	classifier dip.Classifier,
	sinks []drepo.ReportSink,
	metrics drepo.Metrics,
	l *applogger.Logger,
	settings ScannerSettings,
) (*Scanner, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: no price provider", ErrInvalidSettings)
	}
	if estimator == nil {
		return nil, fmt.Errorf("%w: no estimator", ErrInvalidSettings)
	}
	if _, err := dip.NewClassifier(classifier.Likely, classifier.Possible); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Scanner{
		provider:   provider,
		estimator:  estimator,
		classifier: classifier,
		sinks:      sinks,
		metrics:    metrics,
		l:          l,
		settings:   settings,
		now:        time.Now,
	}, nil
}

// assetOutcome holds exactly one of signal or skip.
type assetOutcome struct {
	signal *models.AssetSignal
	skip   *models.SkippedAsset
}

// Scan runs one pass over the universe. Per-asset failures become skips. The
// report is returned even when a sink fails; sink errors come back joined.
func (s *Scanner) Scan(ctx context.Context) (*models.ScanReport, error) {
	runID := uuid.NewString()
	started := s.now()
	l := s.l.With(applogger.String("run_id", runID))
	l.Info("scan started",
		applogger.String("provider", s.provider.Name()),
		applogger.Int("assets", len(s.settings.Universe)),
		applogger.Int("workers", s.settings.Workers),
	)

	outcomes := make([]assetOutcome, len(s.settings.Universe))
	var g errgroup.Group
	g.SetLimit(s.settings.Workers)
	for pos, asset := range s.settings.Universe {
		pos, asset := pos, asset
		g.Go(func() error {
			outcomes[pos] = s.scanAsset(ctx, l, pos, asset)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan %s cancelled: %w", runID, err)
	}

	signals := make([]models.AssetSignal, 0, len(outcomes))
	skipped := make([]models.SkippedAsset, 0)
	for _, o := range outcomes {
		switch {
		case o.signal != nil:
			signals = append(signals, *o.signal)
			s.recordAsset("ok")
		case o.skip != nil:
			skipped = append(skipped, *o.skip)
			s.recordAsset(string(o.skip.Reason))
		}
	}

	ranked := dip.Rank(signals)
	top := ranked.Top(s.settings.TopN)
	trajectories := make([]models.Trajectory, 0, len(top))
	insights := make([]models.Insight, 0, len(top))
	profiles := make([]models.PriceProfile, 0, len(top))
	for _, sig := range top {
		trajectories = append(trajectories, dip.ProjectTrajectory(sig))
		insights = append(insights, features.ComputeInsight(sig.Asset, sig.Prices))
		profiles = append(profiles, features.ComputeProfile(sig.Asset, sig.Prices))
	}

	report := &models.ScanReport{
		RunID:        runID,
		StartedAt:    started,
		FinishedAt:   s.now(),
		Settings:     s.snapshot(),
		Ranked:       ranked,
		Skipped:      skipped,
		Top:          top,
		Trajectories: trajectories,
		Insights:     insights,
		Profiles:     profiles,
	}

	if s.metrics != nil {
		for _, sig := range ranked.Signals {
			s.metrics.RecordSignal(sig.Asset.Ticker, sig.Average, sig.Signal)
		}
		s.metrics.RecordScan(report.Duration())
	}

	if ranked.Len() == 0 {
		l.Warn("no asset produced a signal", applogger.Int("skipped", len(skipped)))
	}
	l.Info("scan finished",
		applogger.Int("ranked", ranked.Len()),
		applogger.Int("skipped", len(skipped)),
		applogger.Duration("elapsed", report.Duration()),
	)

	return report, s.publish(ctx, l, report)
}

func (s *Scanner) scanAsset(ctx context.Context, l *applogger.Logger, pos int, asset models.Asset) assetOutcome {
	skip := func(reason models.SkipReason, err error, observations int) assetOutcome {
		l.Warn("asset skipped",
			applogger.String("ticker", asset.Ticker),
			applogger.String("reason", string(reason)),
			applogger.Int("observations", observations),
			applogger.Error(err),
		)
		return assetOutcome{skip: &models.SkippedAsset{
			Asset:        asset,
			Reason:       reason,
			Error:        err.Error(),
			Observations: observations,
			Position:     pos,
		}}
	}

	actx, cancel := context.WithTimeout(ctx, s.settings.AssetTimeout)
	series, err := s.provider.Fetch(actx, asset, s.settings.LookbackDays)
	cancel()
	if err != nil {
		if errors.Is(err, drepo.ErrMalformedData) {
			return skip(models.SkipMalformedData, err, 0)
		}
		return skip(models.SkipDataUnavailable, err, 0)
	}
	if err := series.Validate(); err != nil {
		return skip(models.SkipMalformedData, fmt.Errorf("%w: %s: %w", drepo.ErrMalformedData, asset.Ticker, err), series.Len())
	}
	if series.Len() < s.settings.MinObservations {
		return skip(models.SkipInsufficientHistory,
			fmt.Errorf("%d prices, need %d", series.Len(), s.settings.MinObservations), series.Len())
	}

	returns := features.ComputeReturns(series.Closes())
	probs := s.estimator.Estimate(returns)
	avg := dip.Average(probs)
	sig := &models.AssetSignal{
		Asset:         asset,
		Probabilities: probs,
		Average:       avg,
		Signal:        s.classifier.Classify(avg),
		Observations:  series.Len(),
		Position:      pos,
		Prices:        series,
		Returns:       returns,
	}
	l.Debug("asset scored",
		applogger.String("ticker", asset.Ticker),
		applogger.Float("avg", avg),
		applogger.String("signal", string(sig.Signal)),
	)
	return assetOutcome{signal: sig}
}

// publish hands the report to every sink and joins their failures.
func (s *Scanner) publish(ctx context.Context, l *applogger.Logger, report *models.ScanReport) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, report); err != nil {
			l.Error("report sink failed", applogger.String("sink", sink.Name()), applogger.Error(err))
			if s.metrics != nil {
				s.metrics.RecordSinkError(sink.Name())
			}
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scanner) recordAsset(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAsset(outcome)
	}
}

func (s *Scanner) snapshot() models.ScanSettings {
	return models.ScanSettings{
		Provider:          s.provider.Name(),
		LookbackDays:      s.settings.LookbackDays,
		MinObservations:   s.settings.MinObservations,
		Window:            s.estimator.Window(),
		Horizons:          s.estimator.Horizons(),
		HorizonMode:       string(s.estimator.Mode()),
		LikelyThreshold:   s.classifier.Likely,
		PossibleThreshold: s.classifier.Possible,
		TopN:              s.settings.TopN,
	}
}
