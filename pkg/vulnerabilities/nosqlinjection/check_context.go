package nosqlinjection

import (
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// CheckContextForNoSQLInjection reports a filter carrying user supplied
// operators and, in blocking mode, returns a *types.BlockedError.
func CheckContextForNoSQLInjection(
	ctx context.Context,
	filter any,
	request *types.Context,
	agent hooks.Agent,
	module string,
	operation string,
) error {
	if agent == nil {
		return nil
	}
	result := DetectNoSQLInjection(request, filter)
	if !result.Injection {
		return nil
	}

	payload := "filter"
	if raw, err := json.Marshal(filter); err == nil {
		payload = string(raw)
	}

	attack := types.Attack{
		Module:    module,
		Operation: operation,
		Kind:      types.KindNoSQLInjection,
		Blocked:   agent.ShouldBlock(),
		Source:    result.Source,
		Path:      ".",
		Stack:     string(debug.Stack()),
		Payload:   payload,
		Metadata:  map[string]string{"filter": payload},
		Request:   request,
	}
	agent.OnDetectedAttack(ctx, attack)
	if attack.Blocked {
		return types.NewBlockedError(attack)
	}
	return nil
}
