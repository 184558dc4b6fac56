package requestcontext

import (
	"net"
	"net/http"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// FromFiber snapshots a fiber request. Everything is copied out of the
// fasthttp buffers, which are reused after the handler returns.
func FromFiber(c *fiber.Ctx) *types.Context {
	req := c.Request()

	query := make(map[string]any)
	req.URI().QueryArgs().VisitAll(func(key, value []byte) {
		Add(query, string(key), string(value))
	})

	headers := make(map[string]any)
	req.Header.VisitAll(func(key, value []byte) {
		Add(headers, strings.ToLower(string(key)), string(value))
	})

	cookies := make(map[string]any)
	req.Header.VisitAllCookie(func(key, value []byte) {
		Add(cookies, string(key), string(value))
	})

	rc := &types.Context{
		Method:        c.Method(),
		URL:           c.BaseURL() + c.OriginalURL(),
		RemoteAddress: c.IP(),
		Source:        common.RequestSourceFiber,
		Query:         query,
		Headers:       headers,
		Cookies:       cookies,
		Body: ParseBody(
			string(req.Header.ContentType()),
			string(req.Header.Peek(fiber.HeaderContentEncoding)),
			req.Body(),
		),
	}
	if route := c.Route(); route != nil {
		rc.Route = route.Path
	}
	return rc
}

// FromHTTPRequest snapshots a net/http request. The body must have been read
// by the caller.
func FromHTTPRequest(r *http.Request, body []byte) *types.Context {
	headers := make(map[string]any, len(r.Header))
	for key, values := range r.Header {
		Add(headers, strings.ToLower(key), values...)
	}

	cookies := make(map[string]any)
	for _, cookie := range r.Cookies() {
		Add(cookies, cookie.Name, cookie.Value)
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return &types.Context{
		Method:        r.Method,
		URL:           scheme + "://" + r.Host + r.URL.RequestURI(),
		RemoteAddress: remoteIP(r.RemoteAddr),
		Source:        common.RequestSourceHTTP,
		Query:         Values(r.URL.Query()),
		Headers:       headers,
		Cookies:       cookies,
		Body:          ParseBody(r.Header.Get("Content-Type"), r.Header.Get("Content-Encoding"), body),
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
