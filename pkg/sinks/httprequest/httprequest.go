// Package httprequest records the hosts outbound HTTP requests connect to.
package httprequest

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/utils"
)

const (
	ModuleHTTP    = "net/http"
	ModuleHTTPS   = "https"
	MethodRequest = "request"
)

type Wrapper struct{}

func (Wrapper) Wrap(h *hooks.Hooks) {
	h.AddBuiltinModule(ModuleHTTP).
		AddSubject(hooks.Exports).
		Inspect(MethodRequest, inspect(80))
	h.AddBuiltinModule(ModuleHTTPS).
		AddSubject(hooks.Exports).
		Inspect(MethodRequest, inspect(443))
}

func inspect(defaultPort uint32) hooks.InspectFunc {
	return func(_ context.Context, args []any, _ any, agent hooks.Agent) error {
		if len(args) == 0 {
			return nil
		}
		hostname, port := target(args[0], defaultPort)
		if hostname != "" {
			agent.OnConnectHostname(hostname, port)
		}
		return nil
	}
}

// target accepts a URL string, *url.URL, *http.Request or an options map
// with hostname and port keys.
func target(arg any, defaultPort uint32) (string, uint32) {
	switch v := arg.(type) {
	case string:
		if u, ok := utils.TryParseURL(v); ok {
			return u.Hostname(), PortOrDefault(u, defaultPort)
		}
	case *url.URL:
		if v != nil {
			return v.Hostname(), PortOrDefault(v, defaultPort)
		}
	case *http.Request:
		if v != nil && v.URL != nil {
			return v.URL.Hostname(), PortOrDefault(v.URL, defaultPort)
		}
	case map[string]any:
		hostname, _ := v["hostname"].(string)
		if hostname == "" {
			hostname, _ = v["host"].(string)
		}
		if port, ok := optionPort(v["port"]); ok {
			return hostname, port
		}
		return hostname, defaultPort
	}
	return "", 0
}

// optionPort reports ports outside 1-65535 as absent.
func optionPort(value any) (uint32, bool) {
	var p float64
	switch v := value.(type) {
	case int:
		p = float64(v)
	case float64:
		p = v
	case uint32:
		p = float64(v)
	default:
		return 0, false
	}
	if p < 1 || p > 65535 || p != math.Trunc(p) {
		return 0, false
	}
	return uint32(p), true
}

func PortOrDefault(u *url.URL, defaultPort uint32) uint32 {
	if port := utils.PortFromURL(u); port != 0 {
		return port
	}
	return defaultPort
}

func moduleFor(u *url.URL) string {
	if u != nil && strings.EqualFold(u.Scheme, "https") {
		return ModuleHTTPS
	}
	return ModuleHTTP
}

// Transport reports every outgoing request before handing it to Base.
type Transport struct {
	Base        http.RoundTripper
	Interceptor *hooks.Interceptor
}

func NewTransport(base http.RoundTripper, interceptor *hooks.Interceptor) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Interceptor: interceptor}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.Interceptor.Call(req.Context(),
		hooks.Invocation{Module: moduleFor(req.URL), Method: MethodRequest, Exports: t, Args: []any{req}},
		func(_ context.Context, args []any) (any, error) {
			return t.Base.RoundTrip(args[0].(*http.Request))
		})
	resp, _ := result.(*http.Response)
	return resp, err
}

// NewClient returns an http.Client whose requests go through the interceptor.
func NewClient(interceptor *hooks.Interceptor) *http.Client {
	return &http.Client{Transport: NewTransport(nil, interceptor)}
}
