package hooks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/sirupsen/logrus"
)

// Invocation identifies an intercepted call.
type Invocation struct {
	Module  string
	Method  string
	Exports any
	Args    []any
}

// Call is the underlying operation guarded by the interceptor.
type Call func(ctx context.Context, args []any) (any, error)

type entryKey struct {
	module string
	method string
}

type binding struct {
	selector          Selector
	inspectors        []InspectFunc
	argumentModifiers []ModifyArgumentsFunc
	returnModifiers   []ModifyReturnValueFunc
}

type agentBox struct {
	agent Agent
}

// Interceptor runs the callbacks registered in a Hooks around sink calls.
// The registry is compiled once; later registrations are not observed.
type Interceptor struct {
	logger  *logrus.Logger
	entries map[entryKey][]binding
	agent   atomic.Pointer[agentBox]
}

func NewInterceptor(h *Hooks, agent Agent, logger *logrus.Logger) *Interceptor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	i := &Interceptor{
		logger:  logger,
		entries: compile(h),
	}
	i.SetAgent(agent)
	return i
}

func compile(h *Hooks) map[entryKey][]binding {
	entries := make(map[entryKey][]binding)
	if h == nil {
		return entries
	}
	for _, module := range h.Modules() {
		for _, subject := range module.Subjects() {
			for _, method := range subject.Methods() {
				subject.mu.Lock()
				b := binding{
					selector:          subject.selector,
					inspectors:        append([]InspectFunc(nil), method.inspectors...),
					argumentModifiers: append([]ModifyArgumentsFunc(nil), method.argumentModifiers...),
					returnModifiers:   append([]ModifyReturnValueFunc(nil), method.returnModifiers...),
				}
				subject.mu.Unlock()
				key := entryKey{module: module.id, method: method.name}
				entries[key] = append(entries[key], b)
			}
		}
	}
	return entries
}

// SetAgent installs the agent callbacks report to. A nil agent disables
// every inspection.
func (i *Interceptor) SetAgent(agent Agent) {
	if agent == nil || isNil(agent) {
		i.agent.Store(nil)
		return
	}
	i.agent.Store(&agentBox{agent: agent})
}

func (i *Interceptor) Agent() Agent {
	if i == nil {
		return nil
	}
	box := i.agent.Load()
	if box == nil {
		return nil
	}
	return box.agent
}

// Intercepts reports whether any callback is registered for module.method.
func (i *Interceptor) Intercepts(module, method string) bool {
	if i == nil {
		return false
	}
	_, ok := i.entries[entryKey{module: module, method: method}]
	return ok
}

// Call runs the inspectors registered for the invocation, then fn. A blocking
// inspector prevents fn from running and its error is returned as is.
func (i *Interceptor) Call(ctx context.Context, inv Invocation, fn Call) (any, error) {
	agent := i.Agent()
	if agent == nil {
		return fn(ctx, inv.Args)
	}
	bindings := i.entries[entryKey{module: inv.Module, method: inv.Method}]
	if len(bindings) == 0 {
		return fn(ctx, inv.Args)
	}

	type bound struct {
		binding
		subject any
	}
	active := make([]bound, 0, len(bindings))
	for _, b := range bindings {
		subject := b.selector(inv.Exports)
		if isNil(subject) {
			continue
		}
		active = append(active, bound{binding: b, subject: subject})
	}
	if len(active) == 0 {
		return fn(ctx, inv.Args)
	}

	_, hasContext := requestcontext.Current(ctx)
	args := inv.Args

	for _, b := range active {
		for _, inspect := range b.inspectors {
			err := i.guard(inv, func() error {
				return inspect(ctx, args, b.subject, agent)
			})
			if types.IsBlocked(err) {
				agent.OnInspectedCall(inv.Module, !hasContext, true)
				return nil, err
			}
		}
	}

	for _, b := range active {
		for _, modify := range b.argumentModifiers {
			var modified []any
			err := i.guard(inv, func() error {
				var err error
				modified, err = modify(ctx, args, b.subject, agent)
				return err
			})
			if err == nil && modified != nil {
				args = modified
			}
		}
	}

	agent.OnInspectedCall(inv.Module, !hasContext, false)

	result, err := fn(ctx, args)
	if err != nil {
		return result, err
	}

	for _, b := range active {
		for _, modify := range b.returnModifiers {
			var replaced any
			err := i.guard(inv, func() error {
				var err error
				replaced, err = modify(ctx, args, result, b.subject, agent)
				return err
			})
			if err == nil && replaced != nil {
				result = replaced
			}
		}
	}
	return result, nil
}

// Do runs only the inspections of an invocation. Sinks call it right before
// performing the operation themselves.
func (i *Interceptor) Do(ctx context.Context, module, method string, exports any, args ...any) error {
	_, err := i.Call(ctx, Invocation{Module: module, Method: method, Exports: exports, Args: args},
		func(context.Context, []any) (any, error) { return nil, nil })
	return err
}

// guard runs fn, turning panics into errors. Failures other than a blocking
// signal are logged and reported to the agent.
func (i *Interceptor) guard(inv Invocation, fn func() error) error {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("callback panicked: %v", r)
			}
		}()
		err = fn()
	}()
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrBlocked) {
		return err
	}
	i.logger.WithFields(logrus.Fields{
		"module": inv.Module,
		"method": inv.Method,
	}).WithError(err).Error("interceptor callback failed")
	if agent := i.Agent(); agent != nil {
		agent.OnInterceptorError(inv.Module, inv.Method, err)
	}
	return err
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
