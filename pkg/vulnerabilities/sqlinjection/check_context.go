package sqlinjection

import (
	"context"
	"runtime/debug"
	"sort"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/utils"
)

// CheckContextForSQLInjection scans every string value of the user input
// buckets of request for one that injects into sql. Detections are reported to agent; in
// blocking mode the first one is returned as a *types.BlockedError.
func CheckContextForSQLInjection(
	ctx context.Context,
	sql string,
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
		found := utils.ExtractStringValuesFromUserInput(bucket)
		for _, input := range sortedKeys(found) {
			if !DetectSQLInjection(sql, input) {
				continue
			}
			attack := types.Attack{
				Module:    module,
				Operation: operation,
				Kind:      types.KindSQLInjection,
				Blocked:   agent.ShouldBlock(),
				Source:    source,
				Path:      found[input],
				Stack:     string(debug.Stack()),
				Payload:   input,
				Metadata:  map[string]string{"sql": sql},
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

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
