package dip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DipScan/internal/domain/models"
)

func TestClassifyBoundaries(t *testing.T) {
	c := DefaultClassifier()

	assert.Equal(t, models.SignalLikelyDip, c.Classify(23.5))
	assert.Equal(t, models.SignalLikelyDip, c.Classify(100))
	assert.Equal(t, models.SignalPossibleDip, c.Classify(23.49))
	assert.Equal(t, models.SignalPossibleDip, c.Classify(15))
	assert.Equal(t, models.SignalStable, c.Classify(14.99))
	assert.Equal(t, models.SignalStable, c.Classify(0))
}

func TestClassifyIsMonotonic(t *testing.T) {
	c := DefaultClassifier()
	prev := c.Classify(0)
	for v := 0.0; v <= 100; v += 0.25 {
		cur := c.Classify(v)
		assert.GreaterOrEqual(t, cur.Severity(), prev.Severity(), "at %.2f", v)
		prev = cur
	}
}

func TestNewClassifier(t *testing.T) {
	_, err := NewClassifier(15, 15)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	c, err := NewClassifier(50, 10)
	require.NoError(t, err)
	assert.Equal(t, models.SignalPossibleDip, c.Classify(30))
}
