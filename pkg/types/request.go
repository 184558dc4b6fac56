package types

// Source is one of the user-controlled buckets of an inbound request.
type Source string

const (
	SourceBody    Source = "body"
	SourceQuery   Source = "query"
	SourceHeaders Source = "headers"
	SourceCookies Source = "cookies"
)

// Sources is the order in which request buckets are scanned.
var Sources = []Source{SourceBody, SourceQuery, SourceHeaders, SourceCookies}

func (s Source) FriendlyName() string {
	switch s {
	case SourceQuery:
		return "query parameters"
	case SourceBody, SourceHeaders, SourceCookies:
		return string(s)
	default:
		return "unknown source"
	}
}

// Context is the snapshot of the inbound request a sink call is attributed to.
// It is built once when the request enters the application and is never
// mutated afterwards.
type Context struct {
	Method        string         `json:"method"`
	URL           string         `json:"url"`
	Route         string         `json:"route,omitempty"`
	RemoteAddress string         `json:"remoteAddress"`
	Source        string         `json:"source"`
	Query         map[string]any `json:"query"`
	Headers       map[string]any `json:"headers"`
	Cookies       map[string]any `json:"cookies"`
	Body          any            `json:"body"`
}

// Bucket returns the user input stored under the given source, or nil.
func (c *Context) Bucket(source Source) any {
	if c == nil {
		return nil
	}
	switch source {
	case SourceBody:
		return c.Body
	case SourceQuery:
		if c.Query == nil {
			return nil
		}
		return c.Query
	case SourceHeaders:
		if c.Headers == nil {
			return nil
		}
		return c.Headers
	case SourceCookies:
		if c.Cookies == nil {
			return nil
		}
		return c.Cookies
	}
	return nil
}

// Header returns the first value of a lower-cased header key.
func (c *Context) Header(name string) string {
	if c == nil || c.Headers == nil {
		return ""
	}
	switch v := c.Headers[name].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
