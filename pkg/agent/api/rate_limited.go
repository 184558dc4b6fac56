package api

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// Window admits at most a fixed number of events per trailing interval.
type Window interface {
	Allow(ctx context.Context, now time.Time) (bool, error)
}

type RateLimitOptions struct {
	MaxEventsPerInterval int
	Interval             time.Duration
}

// RateLimitedClientSide throttles detected attacks before they reach the
// wrapped API. Lifecycle events always pass.
type RateLimitedClientSide struct {
	api    API
	window Window
	now    func() time.Time
}

type RateLimitedOpts struct {
	TimeProvider func() time.Time
}

func NewRateLimitedClientSide(api API, window Window, opts *RateLimitedOpts) *RateLimitedClientSide {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &RateLimitedClientSide{
		api:    api,
		window: window,
		now:    timeProvider,
	}
}

func (r *RateLimitedClientSide) Report(ctx context.Context, token Token, event types.Event) (ReportingResult, error) {
	switch event.(type) {
	case *types.StartedEvent, *types.HeartbeatEvent:
		return r.api.Report(ctx, token, event)
	case *types.DetectedAttackEvent:
		allowed, err := r.window.Allow(ctx, r.now())
		if err != nil {
			return Failed(ErrorUnknown), fmt.Errorf("failed to check reporting window: %w", err)
		}
		if !allowed {
			return Failed(ErrorRateLimited), nil
		}
		return r.api.Report(ctx, token, event)
	default:
		return Failed(ErrorUnknown), fmt.Errorf("unsupported event %T", event)
	}
}
