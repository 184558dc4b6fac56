// Package childprocess guards shell command execution against shell
// injection.
package childprocess

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/NeuralTrust/TrustShield/pkg/vulnerabilities/shellinjection"
)

const (
	Module         = "os/exec"
	MethodExec     = "exec"
	MethodExecFile = "execFile"
)

// Runner executes a program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Wrapper struct{}

func (Wrapper) Wrap(h *hooks.Hooks) {
	h.AddBuiltinModule(Module).
		AddSubject(hooks.Exports).
		Inspect(MethodExec, inspect(MethodExec)).
		Inspect(MethodExecFile, inspect(MethodExecFile))
}

func inspect(method string) hooks.InspectFunc {
	return func(ctx context.Context, args []any, _ any, agent hooks.Agent) error {
		request, ok := requestcontext.Current(ctx)
		if !ok || len(args) == 0 {
			return nil
		}
		command, ok := args[0].(string)
		if !ok || command == "" {
			return nil
		}
		return shellinjection.CheckContextForShellInjection(ctx, command, request, agent, Module, method)
	}
}

// Exec runs command through sh -c once the interceptor lets it through.
func Exec(ctx context.Context, interceptor *hooks.Interceptor, runner Runner, command string) ([]byte, error) {
	result, err := interceptor.Call(ctx,
		hooks.Invocation{Module: Module, Method: MethodExec, Exports: runner, Args: []any{command}},
		func(ctx context.Context, args []any) (any, error) {
			return runner.Run(ctx, "sh", "-c", args[0].(string))
		})
	return output(result, err)
}

// ExecFile runs name directly. The joined command line is what gets
// inspected.
func ExecFile(ctx context.Context, interceptor *hooks.Interceptor, runner Runner, name string, args ...string) ([]byte, error) {
	commandLine := strings.TrimSpace(name + " " + strings.Join(args, " "))
	result, err := interceptor.Call(ctx,
		hooks.Invocation{Module: Module, Method: MethodExecFile, Exports: runner, Args: []any{commandLine}},
		func(ctx context.Context, _ []any) (any, error) {
			return runner.Run(ctx, name, args...)
		})
	return output(result, err)
}

func output(result any, err error) ([]byte, error) {
	if err != nil {
		out, _ := result.([]byte)
		return out, err
	}
	if result == nil {
		return nil, nil
	}
	out, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected exec result %T", result)
	}
	return out, nil
}
