package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errRelay = errors.New("421 service not available")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	b := New("smtp", WithFailureThreshold(2), WithCoolDown(time.Minute), WithClock(clock.Now))

	change := b.RecordFailure()
	assert.False(t, change.Opened)
	assert.Equal(t, StateClosed, b.State())

	change = b.RecordFailure()
	assert.True(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())

	called := false
	_, err := b.Execute(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	b := New("smtp", WithFailureThreshold(1), WithCoolDown(time.Minute), WithClock(clock.Now))

	_, err := b.Execute(func() error { return errRelay })
	require.ErrorIs(t, err, errRelay)
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	t.Run("failed trial re-opens", func(t *testing.T) {
		change, err := b.Execute(func() error { return errRelay })
		require.Error(t, err)
		assert.True(t, change.Opened)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("successful trial closes", func(t *testing.T) {
		clock.Advance(time.Minute)
		change, err := b.Execute(func() error { return nil })
		require.NoError(t, err)
		assert.True(t, change.Closed)
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("smtp", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
}
