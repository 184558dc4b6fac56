package shellinjection

import (
	"context"
	"runtime/debug"
	"sort"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/utils"
)

func CheckContextForShellInjection(
	ctx context.Context,
	command string,
	request *types.Context,
	agent hooks.Agent,
	module string,
	operation string,
) error {
	if request == nil || agent == nil {
		return nil
	}
	for _, source := range types.Sources {
		bucket := request.Bucket(source)
		if bucket == nil {
			continue
		}
		found := utils.ExtractStringsFromUserInput(bucket)
		inputs := make([]string, 0, len(found))
		for input := range found {
			inputs = append(inputs, input)
		}
		sort.Strings(inputs)

		for _, input := range inputs {
			if !DetectShellInjection(command, input) {
				continue
			}
			attack := types.Attack{
				Module:    module,
				Operation: operation,
				Kind:      types.KindShellInjection,
				Blocked:   agent.ShouldBlock(),
				Source:    source,
				Path:      found[input],
				Stack:     string(debug.Stack()),
				Payload:   input,
				Metadata:  map[string]string{"command": command},
				Request:   request,
			}
			agent.OnDetectedAttack(ctx, attack)
			if attack.Blocked {
				return types.NewBlockedError(attack)
			}
		}
	}
	return nil
}
