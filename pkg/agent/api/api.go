// Package api holds the transports the agent reports events through.
package api

import (
	"context"
	"errors"

	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// Token authenticates the agent against the reporting backend.
type Token string

func (t Token) String() string {
	return string(t)
}

func (t Token) IsEmpty() bool {
	return t == ""
}

const (
	ErrorRateLimited  = "rate_limited"
	ErrorTimeout      = "timeout"
	ErrorInvalidToken = "invalid_token"
	ErrorUnknown      = "unknown_error"
)

var (
	ErrRateLimited  = errors.New("too many events reported")
	ErrInvalidToken = errors.New("invalid token")
)

type ReportingResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Succeeded() ReportingResult {
	return ReportingResult{Success: true}
}

func Failed(reason string) ReportingResult {
	return ReportingResult{Error: reason}
}

//go:generate mockery --name=API --dir=. --output=./mocks --filename=api_mock.go --case=underscore
type API interface {
	Report(ctx context.Context, token Token, event types.Event) (ReportingResult, error)
}
