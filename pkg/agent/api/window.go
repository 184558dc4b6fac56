package api

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// MemoryWindow keeps the timestamps of admitted events in process memory.
type MemoryWindow struct {
	mu       sync.Mutex
	max      int
	interval time.Duration
	events   []time.Time
}

func NewMemoryWindow(opts RateLimitOptions) *MemoryWindow {
	if opts.MaxEventsPerInterval <= 0 {
		opts.MaxEventsPerInterval = common.DefaultMaxEventsPerInterval
	}
	if opts.Interval <= 0 {
		opts.Interval = common.DefaultReportingInterval
	}
	return &MemoryWindow{
		max:      opts.MaxEventsPerInterval,
		interval: opts.Interval,
	}
}

func (w *MemoryWindow) Allow(_ context.Context, now time.Time) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.purge(now)
	if len(w.events) >= w.max {
		return false, nil
	}
	w.events = append(w.events, now)
	return true, nil
}

// Len returns the number of events still inside the window.
func (w *MemoryWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

func (w *MemoryWindow) purge(now time.Time) {
	cut := 0
	for cut < len(w.events) && now.Sub(w.events[cut]) >= w.interval {
		cut++
	}
	if cut > 0 {
		w.events = append(w.events[:0], w.events[cut:]...)
	}
}

type RedisWindowOpts struct {
	Key          string
	UuidProvider func() uuid.UUID
}

// RedisWindow shares the reporting budget between every process that
// points at the same redis key.
type RedisWindow struct {
	redis        *redis.Client
	key          string
	max          int
	interval     time.Duration
	uuidProvider func() uuid.UUID
}

func NewRedisWindow(redisClient *redis.Client, limits RateLimitOptions, opts *RedisWindowOpts) *RedisWindow {
	if limits.MaxEventsPerInterval <= 0 {
		limits.MaxEventsPerInterval = common.DefaultMaxEventsPerInterval
	}
	if limits.Interval <= 0 {
		limits.Interval = common.DefaultReportingInterval
	}
	key := common.SharedWindowKey
	uuidProvider := uuid.New
	if opts != nil && opts.Key != "" {
		key = opts.Key
	}
	if opts != nil && opts.UuidProvider != nil {
		uuidProvider = opts.UuidProvider
	}
	return &RedisWindow{
		redis:        redisClient,
		key:          key,
		max:          limits.MaxEventsPerInterval,
		interval:     limits.Interval,
		uuidProvider: uuidProvider,
	}
}

func (w *RedisWindow) Allow(ctx context.Context, now time.Time) (bool, error) {
	nowMs := now.UnixMilli()
	windowStart := now.Add(-w.interval).UnixMilli()

	count, err := w.redis.ZCount(ctx, w.key,
		"("+strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(nowMs, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count reported events: %w", err)
	}
	if count >= int64(w.max) {
		return false, nil
	}

	member := fmt.Sprintf("%d:%s", nowMs, w.uuidProvider().String())
	pipe := w.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, w.key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, w.key, &redis.Z{
		Score:  float64(nowMs),
		Member: member,
	})
	pipe.Expire(ctx, w.key, w.interval)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute reporting window pipeline: %w", err)
	}
	return true, nil
}
