package api_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWindow_Defaults(t *testing.T) {
	window := api.NewMemoryWindow(api.RateLimitOptions{})
	now := time.Now()
	for i := 0; i < common.DefaultMaxEventsPerInterval; i++ {
		ok, err := window.Allow(context.Background(), now)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := window.Allow(context.Background(), now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryWindow_PurgesOnlyExpiredEntries(t *testing.T) {
	window := api.NewMemoryWindow(api.RateLimitOptions{MaxEventsPerInterval: 2, Interval: time.Second})
	start := time.Unix(1740730536, 0)
	ctx := context.Background()

	ok, _ := window.Allow(ctx, start)
	assert.True(t, ok)
	ok, _ = window.Allow(ctx, start.Add(500*time.Millisecond))
	assert.True(t, ok)
	ok, _ = window.Allow(ctx, start.Add(900*time.Millisecond))
	assert.False(t, ok)

	ok, _ = window.Allow(ctx, start.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 2, window.Len())
}

func TestRedisWindow_Allows(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(false)

	interval := time.Minute
	fixedTime := time.Unix(1740730536, 0)
	windowStart := fixedTime.Add(-interval).UnixMilli()
	uid := uuid.New()
	key := common.SharedWindowKey

	mock.ExpectZCount(
		key,
		"("+strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(fixedTime.UnixMilli(), 10),
	).SetVal(3)
	mock.ExpectTxPipeline()
	mock.ExpectZRemRangeByScore(key, "0", strconv.FormatInt(windowStart, 10)).SetVal(1)
	mock.ExpectZAdd(key, &redis.Z{
		Score:  float64(fixedTime.UnixMilli()),
		Member: strconv.FormatInt(fixedTime.UnixMilli(), 10) + ":" + uid.String(),
	}).SetVal(1)
	mock.ExpectExpire(key, interval).SetVal(true)
	mock.ExpectTxPipelineExec()

	window := api.NewRedisWindow(redisMock,
		api.RateLimitOptions{MaxEventsPerInterval: 5, Interval: interval},
		&api.RedisWindowOpts{UuidProvider: func() uuid.UUID { return uid }},
	)

	ok, err := window.Allow(context.Background(), fixedTime)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisWindow_RejectsWhenFull(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()

	interval := time.Minute
	fixedTime := time.Unix(1740730536, 0)
	windowStart := fixedTime.Add(-interval).UnixMilli()

	mock.ExpectZCount(
		"custom",
		"("+strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(fixedTime.UnixMilli(), 10),
	).SetVal(5)

	window := api.NewRedisWindow(redisMock,
		api.RateLimitOptions{MaxEventsPerInterval: 5, Interval: interval},
		&api.RedisWindowOpts{Key: "custom"},
	)

	ok, err := window.Allow(context.Background(), fixedTime)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisWindow_CountError(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	fixedTime := time.Unix(1740730536, 0)
	expectFailingCount(mock, fixedTime)

	window := api.NewRedisWindow(redisMock, api.RateLimitOptions{}, nil)
	ok, err := window.Allow(context.Background(), fixedTime)

	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRateLimitedClientSide_WindowErrorDropsEvent(t *testing.T) {
	redisMock, mock := redismock.NewClientMock()
	fixedTime := time.Unix(1740730536, 0)
	expectFailingCount(mock, fixedTime)

	inner := api.NewForTesting()
	reporter := api.NewRateLimitedClientSide(
		inner,
		api.NewRedisWindow(redisMock, api.RateLimitOptions{}, nil),
		&api.RateLimitedOpts{TimeProvider: func() time.Time { return fixedTime }},
	)

	result, err := reporter.Report(context.Background(), "token", attackEvent())
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, inner.Events())
}

func expectFailingCount(mock redismock.ClientMock, now time.Time) {
	windowStart := now.Add(-common.DefaultReportingInterval).UnixMilli()
	mock.ExpectZCount(
		common.SharedWindowKey,
		"("+strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(now.UnixMilli(), 10),
	).SetErr(errors.New("connection refused"))
}
