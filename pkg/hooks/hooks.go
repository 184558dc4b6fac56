// Package hooks is the registry sinks use to declare which calls are
// inspected, and the interceptor that runs those inspections.
package hooks

import (
	"context"
	"sync"

	"github.com/NeuralTrust/TrustShield/pkg/types"
)

// Agent is the protection state inspectors report to.
type Agent interface {
	ShouldBlock() bool
	OnDetectedAttack(ctx context.Context, attack types.Attack)
	OnConnectHostname(hostname string, port uint32)
	OnInspectedCall(module string, withoutContext, blocked bool)
	OnInterceptorError(module, method string, err error)
}

// Wrapper is implemented by every sink binding.
type Wrapper interface {
	Wrap(h *Hooks)
}

// InspectFunc runs before the intercepted call. Returning a
// *types.BlockedError aborts the call; any other error is logged and ignored.
type InspectFunc func(ctx context.Context, args []any, subject any, agent Agent) error

// ModifyArgumentsFunc may replace the arguments passed to the intercepted call.
// Returning nil keeps them unchanged.
type ModifyArgumentsFunc func(ctx context.Context, args []any, subject any, agent Agent) ([]any, error)

// ModifyReturnValueFunc may replace the value returned by the intercepted call.
// Returning nil keeps it unchanged.
type ModifyReturnValueFunc func(ctx context.Context, args []any, result any, subject any, agent Agent) (any, error)

// Selector resolves the instrumented object from what a sink exposes.
// Returning nil means the call is not reachable through this subject.
type Selector func(exports any) any

// Exports selects the exposed object itself.
func Exports(exports any) any {
	return exports
}

type Hooks struct {
	mu      sync.Mutex
	modules []*Module
	index   map[string]*Module
}

func New() *Hooks {
	return &Hooks{index: make(map[string]*Module)}
}

// AddModule returns the module registered under id, creating it if needed.
func (h *Hooks) AddModule(id string) *Module {
	return h.addModule(id, false)
}

// AddBuiltinModule registers a module that ships with the Go runtime.
func (h *Hooks) AddBuiltinModule(id string) *Module {
	return h.addModule(id, true)
}

func (h *Hooks) addModule(id string, builtin bool) *Module {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.index[id]; ok {
		return m
	}
	m := &Module{id: id, builtin: builtin}
	h.modules = append(h.modules, m)
	h.index[id] = m
	return m
}

func (h *Hooks) Modules() []*Module {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Module(nil), h.modules...)
}

type Module struct {
	mu       sync.Mutex
	id       string
	pkg      string
	builtin  bool
	subjects []*Subject
}

func (m *Module) ID() string      { return m.id }
func (m *Module) IsBuiltin() bool { return m.builtin }

// Package is the Go import path backing the module, used to report its version.
func (m *Module) Package() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pkg
}

func (m *Module) ForPackage(importPath string) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pkg = importPath
	return m
}

func (m *Module) AddSubject(selector Selector) *Subject {
	if selector == nil {
		selector = Exports
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Subject{selector: selector, index: make(map[string]*Method)}
	m.subjects = append(m.subjects, s)
	return s
}

func (m *Module) Subjects() []*Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Subject(nil), m.subjects...)
}

type Subject struct {
	mu       sync.Mutex
	selector Selector
	methods  []*Method
	index    map[string]*Method
}

func (s *Subject) Inspect(method string, fn InspectFunc) *Subject {
	s.update(method, func(m *Method) {
		m.inspectors = append(m.inspectors, fn)
	})
	return s
}

func (s *Subject) ModifyArguments(method string, fn ModifyArgumentsFunc) *Subject {
	s.update(method, func(m *Method) {
		m.argumentModifiers = append(m.argumentModifiers, fn)
	})
	return s
}

func (s *Subject) ModifyReturnValue(method string, fn ModifyReturnValueFunc) *Subject {
	s.update(method, func(m *Method) {
		m.returnModifiers = append(m.returnModifiers, fn)
	})
	return s
}

func (s *Subject) Methods() []*Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Method(nil), s.methods...)
}

func (s *Subject) update(name string, fn func(m *Method)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.index[name]
	if !ok {
		m = &Method{name: name}
		s.methods = append(s.methods, m)
		s.index[name] = m
	}
	fn(m)
}

// Method holds the callbacks registered for one method name.
type Method struct {
	name              string
	inspectors        []InspectFunc
	argumentModifiers []ModifyArgumentsFunc
	returnModifiers   []ModifyReturnValueFunc
}

func (m *Method) Name() string { return m.name }
