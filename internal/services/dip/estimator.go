package dip

import (
	"errors"
	"fmt"

	"DipScan/internal/domain/models"
	"DipScan/internal/services/features"
)

var ErrInvalidParameter = errors.New("invalid dip parameter")

const DefaultWindow = 7

// DefaultHorizons are the trailing day counts probabilities are reported for.
var DefaultHorizons = []int{30, 90, 180}

type HorizonMode string

const (
	// HorizonFallback handles a horizon longer than the history by its place in the
	// horizon list: the shortest and the longest are measured over the whole history,
	// the ones in between report 0.
	HorizonFallback HorizonMode = "fallback"
	// HorizonStrict leaves such horizons undefined and out of the average.
	HorizonStrict HorizonMode = "strict"
)

// Estimator turns a return series into per-horizon dip probabilities.
type Estimator struct {
	window   int
	horizons []int
	mode     HorizonMode
	shortest int
	longest  int
}

func NewEstimator(window int, horizons []int, mode HorizonMode) (*Estimator, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: window %d must be at least 2", ErrInvalidParameter, window)
	}
	if len(horizons) == 0 {
		return nil, fmt.Errorf("%w: no horizons", ErrInvalidParameter)
	}
	for _, h := range horizons {
		if h <= 0 {
			return nil, fmt.Errorf("%w: horizon %d must be positive", ErrInvalidParameter, h)
		}
	}
	switch mode {
	case "":
		mode = HorizonFallback
	case HorizonFallback, HorizonStrict:
	default:
		return nil, fmt.Errorf("%w: unknown horizon mode %q", ErrInvalidParameter, mode)
	}
	e := &Estimator{
		window:   window,
		horizons: append([]int(nil), horizons...),
		mode:     mode,
		shortest: horizons[0],
		longest:  horizons[0],
	}
	for _, h := range horizons[1:] {
		e.shortest = min(e.shortest, h)
		e.longest = max(e.longest, h)
	}
	return e, nil
}

func (e *Estimator) Window() int { return e.window }

func (e *Estimator) Horizons() []int { return append([]int(nil), e.horizons...) }

func (e *Estimator) Mode() HorizonMode { return e.mode }

// DipFlags marks day i when its return falls below minus the rolling deviation.
// Days without a defined deviation are never flagged.
func DipFlags(returns []float64, stats []features.Stat) []bool {
	flags := make([]bool, len(returns))
	for i, r := range returns {
		if i < len(stats) && stats[i].Valid && r < -stats[i].Value {
			flags[i] = true
		}
	}
	return flags
}

// Estimate computes the rolling deviation, dip flags and one probability per horizon.
func (e *Estimator) Estimate(returns []float64) models.HorizonProbabilities {
	flags := DipFlags(returns, features.RollingStdDev(returns, e.window))
	return e.FromFlags(flags)
}

// FromFlags scores each horizon over its most recent flags as a rounded percentage.
// The flags come from a price series one observation longer, and a horizon counts
// as covered once that price series has at least horizon observations.
func (e *Estimator) FromFlags(flags []bool) models.HorizonProbabilities {
	observations := len(flags) + 1
	out := make(models.HorizonProbabilities, 0, len(e.horizons))
	for _, h := range e.horizons {
		p := models.HorizonProbability{Horizon: h, Defined: true}
		switch {
		case observations >= h:
			p.Value = trailingFrequency(flags, h)
		case e.mode == HorizonStrict:
			p.Defined = false
		case h == e.shortest || h == e.longest:
			p.Value = trailingFrequency(flags, h)
		}
		out = append(out, p)
	}
	return out
}

func trailingFrequency(flags []bool, horizon int) float64 {
	n := min(horizon, len(flags))
	if n == 0 {
		return 0
	}
	hits := 0
	for _, f := range flags[len(flags)-n:] {
		if f {
			hits++
		}
	}
	return Round2(float64(hits) / float64(n) * 100)
}

// Average is the rounded mean of the defined horizon values, 0 when none is defined.
func Average(probs models.HorizonProbabilities) float64 {
	sum, n := 0.0, 0
	for _, p := range probs {
		if !p.Defined {
			continue
		}
		sum += p.Value
		n++
	}
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}
