// Package requestcontext carries the inbound request snapshot alongside the
// context.Context of the code handling it.
package requestcontext

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// With returns a copy of ctx carrying rc. An inner With shadows an outer one.
func With(ctx context.Context, rc *types.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, common.RequestContextKey, rc)
}

// Current returns the request snapshot bound to ctx, if any.
func Current(ctx context.Context) (*types.Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(common.RequestContextKey).(*types.Context)
	return rc, ok && rc != nil
}

// Run executes fn with rc bound. Goroutines started by fn from the derived
// context observe rc and nothing else.
func Run(ctx context.Context, rc *types.Context, fn func(ctx context.Context) error) error {
	return fn(With(ctx, rc))
}
