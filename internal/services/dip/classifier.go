package dip

import (
	"fmt"

	"DipScan/internal/domain/models"
)

const (
	DefaultLikelyThreshold   = 23.5
	DefaultPossibleThreshold = 15.0
)

// Classifier maps an average dip probability onto a signal.
type Classifier struct {
	Likely   float64
	Possible float64
}

func DefaultClassifier() Classifier {
	return Classifier{Likely: DefaultLikelyThreshold, Possible: DefaultPossibleThreshold}
}

func NewClassifier(likely, possible float64) (Classifier, error) {
	if possible >= likely {
		return Classifier{}, fmt.Errorf("%w: possible threshold %.2f must be below likely %.2f",
			ErrInvalidParameter, possible, likely)
	}
	return Classifier{Likely: likely, Possible: possible}, nil
}

func (c Classifier) Classify(avg float64) models.Signal {
	switch {
	case avg >= c.Likely:
		return models.SignalLikelyDip
	case avg >= c.Possible:
		return models.SignalPossibleDip
	default:
		return models.SignalStable
	}
}
