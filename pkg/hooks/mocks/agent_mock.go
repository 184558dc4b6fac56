package mocks

import (
	"context"

	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/stretchr/testify/mock"
)

// Agent is a testify mock of hooks.Agent.
type Agent struct {
	mock.Mock
}

func (m *Agent) ShouldBlock() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *Agent) OnDetectedAttack(ctx context.Context, attack types.Attack) {
	m.Called(ctx, attack)
}

func (m *Agent) OnConnectHostname(hostname string, port uint32) {
	m.Called(hostname, port)
}

func (m *Agent) OnInspectedCall(module string, withoutContext, blocked bool) {
	m.Called(module, withoutContext, blocked)
}

func (m *Agent) OnInterceptorError(module, method string, err error) {
	m.Called(module, method, err)
}

// NewPermissive returns a mock accepting every reporting call, blocking or
// not depending on block.
func NewPermissive(block bool) *Agent {
	m := &Agent{}
	m.On("ShouldBlock").Return(block).Maybe()
	m.On("OnDetectedAttack", mock.Anything, mock.Anything).Return().Maybe()
	m.On("OnConnectHostname", mock.Anything, mock.Anything).Return().Maybe()
	m.On("OnInspectedCall", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	m.On("OnInterceptorError", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	return m
}

// Attacks returns the attacks reported so far.
func (m *Agent) Attacks() []types.Attack {
	var attacks []types.Attack
	for _, call := range m.Calls {
		if call.Method == "OnDetectedAttack" {
			attacks = append(attacks, call.Arguments.Get(1).(types.Attack))
		}
	}
	return attacks
}
