package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, ModeLinear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

func TestNewPolicy_OverridesAndClamps(t *testing.T) {
	p := NewPolicy("FIXED", 5*time.Second, 2*time.Second, 5)
	require.Equal(t, ModeFixed, p.Mode)
	require.Equal(t, 2*time.Second, p.Initial)
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, 5, p.MaxRetries)

	p = NewPolicy("bogus", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), p)
}

func TestDelay(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		mode    Mode
		attempt int
		want    time.Duration
	}{
		{ModeFixed, 1, 100 * ms},
		{ModeFixed, 3, 100 * ms},
		{ModeLinear, 1, 100 * ms},
		{ModeLinear, 2, 200 * ms},
		{ModeLinear, 3, 250 * ms},
		{ModeExponential, 1, 100 * ms},
		{ModeExponential, 2, 200 * ms},
		{ModeExponential, 3, 250 * ms},
		{ModeExponential, 0, 0},
	}
	for _, tc := range cases {
		p := NewPolicy(tc.mode, 100*ms, 250*ms, 5)
		require.Equal(t, tc.want, p.Delay(tc.attempt), "%s attempt %d", tc.mode, tc.attempt)
	}
}

func TestValidate(t *testing.T) {
	require.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(t.Context(), func() error {
		calls++
		if calls < 3 {
			return errors.New("unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(t.Context(), func() error {
		calls++
		return errors.New("still down")
	})
	require.EqualError(t, err, "still down")
	require.Equal(t, 3, calls)
}

func TestDo_StopsOnCancel(t *testing.T) {
	p := NewPolicy(ModeFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
