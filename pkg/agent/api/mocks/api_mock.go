package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/stretchr/testify/mock"
)

type API struct {
	mock.Mock
}

func (m *API) Report(ctx context.Context, token api.Token, event types.Event) (api.ReportingResult, error) {
	args := m.Called(ctx, token, event)
	result, _ := args.Get(0).(api.ReportingResult)
	return result, args.Error(1)
}
