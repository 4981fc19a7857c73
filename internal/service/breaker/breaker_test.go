package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errUpstream = errors.New("upstream down")

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	b := New(Settings{
		Name:                "yahoo",
		ConsecutiveFailures: 2,
		Timeout:             time.Minute,
		OnStateChange: func(name, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	calls := 0
	fail := func() error { calls++; return errUpstream }

	assert.ErrorIs(t, b.Execute(fail), errUpstream)
	assert.ErrorIs(t, b.Execute(fail), errUpstream)
	assert.Equal(t, "open", b.State())

	assert.ErrorIs(t, b.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls, "open breaker does not call through")
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreakerIgnoresErrorsMarkedSuccessful(t *testing.T) {
	errUnknown := errors.New("unknown ticker")
	b := New(Settings{
		Name:                "yahoo",
		ConsecutiveFailures: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnknown)
		},
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Execute(func() error { return errUnknown }), errUnknown)
	}
	assert.Equal(t, "closed", b.State())
}
