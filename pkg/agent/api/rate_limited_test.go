package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/agent/api/mocks"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Unix(1740730536, 0)}
}

func attackEvent() types.Event {
	return &types.DetectedAttackEvent{
		Attack: types.Attack{Kind: types.KindSQLInjection, Module: "database/sql"},
	}
}

func TestRateLimitedClientSide_SlidingWindow(t *testing.T) {
	clk := newClock()
	inner := api.NewForTesting()
	window := api.NewMemoryWindow(api.RateLimitOptions{MaxEventsPerInterval: 5, Interval: time.Second})
	reporter := api.NewRateLimitedClientSide(inner, window, &api.RateLimitedOpts{TimeProvider: clk.Now})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := reporter.Report(ctx, "token", attackEvent())
		require.NoError(t, err)
		assert.True(t, result.Success)
	}

	result, err := reporter.Report(ctx, "token", attackEvent())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, api.ErrorRateLimited, result.Error)
	assert.Len(t, inner.Events(), 5)

	clk.Advance(time.Second)
	result, err = reporter.Report(ctx, "token", attackEvent())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, inner.Events(), 6)
}

func TestRateLimitedClientSide_LifecycleEventsAlwaysPass(t *testing.T) {
	inner := api.NewForTesting()
	window := api.NewMemoryWindow(api.RateLimitOptions{MaxEventsPerInterval: 1, Interval: time.Hour})
	reporter := api.NewRateLimitedClientSide(inner, window, nil)
	ctx := context.Background()

	_, err := reporter.Report(ctx, "token", attackEvent())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		result, err := reporter.Report(ctx, "token", &types.StartedEvent{})
		require.NoError(t, err)
		assert.True(t, result.Success)
		result, err = reporter.Report(ctx, "token", &types.HeartbeatEvent{})
		require.NoError(t, err)
		assert.True(t, result.Success)
	}
	assert.Len(t, inner.Events(), 101)
	assert.Equal(t, 1, window.Len())
}

func TestRateLimitedClientSide_BoundedMemory(t *testing.T) {
	clk := newClock()
	inner := api.NewForTesting()
	window := api.NewMemoryWindow(api.RateLimitOptions{MaxEventsPerInterval: 10, Interval: time.Minute})
	reporter := api.NewRateLimitedClientSide(inner, window, &api.RateLimitedOpts{TimeProvider: clk.Now})
	ctx := context.Background()

	var allowed, rejected int
	for i := 0; i < 110; i++ {
		result, err := reporter.Report(ctx, "token", attackEvent())
		require.NoError(t, err)
		if result.Success {
			allowed++
		} else {
			rejected++
		}
		clk.Advance(time.Millisecond)
	}

	assert.Equal(t, 10, allowed)
	assert.Equal(t, 100, rejected)
	assert.Equal(t, 10, window.Len())
}

func TestRateLimitedClientSide_TransportErrorIsReturned(t *testing.T) {
	reporter := api.NewRateLimitedClientSide(
		api.ThatThrows{},
		api.NewMemoryWindow(api.RateLimitOptions{}),
		nil,
	)

	_, err := reporter.Report(context.Background(), "token", attackEvent())
	assert.ErrorIs(t, err, api.ErrReportFailed)
}

func TestRateLimitedClientSide_ForwardsToken(t *testing.T) {
	inner := &mocks.API{}
	inner.On("Report", mock.Anything, api.Token("secret"), mock.AnythingOfType("*types.StartedEvent")).
		Return(api.Succeeded(), nil).Once()

	reporter := api.NewRateLimitedClientSide(inner, api.NewMemoryWindow(api.RateLimitOptions{}), nil)
	result, err := reporter.Report(context.Background(), "secret", &types.StartedEvent{})

	require.NoError(t, err)
	assert.True(t, result.Success)
	inner.AssertExpectations(t)
}
