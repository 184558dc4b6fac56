package types

import (
	"encoding/json"
	"strings"
)

type EventType string

const (
	EventStarted        EventType = "started"
	EventHeartbeat      EventType = "heartbeat"
	EventDetectedAttack EventType = "detected_attack"
)

// Event is one of StartedEvent, HeartbeatEvent or DetectedAttackEvent.
type Event interface {
	Type() EventType
	isEvent()
}

type OSInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// AgentInfo is the descriptor attached to every reported event.
type AgentInfo struct {
	Version                     string            `json:"version"`
	DryMode                     bool              `json:"dryMode"`
	Hostname                    string            `json:"hostname"`
	Packages                    map[string]string `json:"packages"`
	IPAddress                   string            `json:"ipAddress"`
	PreventedPrototypePollution bool              `json:"preventedPrototypePollution"`
	NodeEnv                     string            `json:"nodeEnv"`
	OS                          OSInfo            `json:"os"`
	Serverless                  bool              `json:"serverless"`
}

type Envelope struct {
	Time  int64     `json:"time"`
	Agent AgentInfo `json:"agent"`
}

type StartedEvent struct {
	Envelope
}

func (*StartedEvent) Type() EventType { return EventStarted }
func (*StartedEvent) isEvent()        {}

func (e *StartedEvent) MarshalJSON() ([]byte, error) {
	type alias StartedEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		*alias
	}{EventStarted, (*alias)(e)})
}

type AttacksDetected struct {
	Total   int64 `json:"total"`
	Blocked int64 `json:"blocked"`
}

type RequestStats struct {
	Total           int64           `json:"total"`
	AttacksDetected AttacksDetected `json:"attacksDetected"`
}

// SinkStats are the counters kept for every instrumented module.
type SinkStats struct {
	Total                 int64           `json:"total"`
	Blocked               int64           `json:"blocked"`
	Allowed               int64           `json:"allowed"`
	WithoutContext        int64           `json:"withoutContext"`
	InterceptorThrewError int64           `json:"interceptorThrewError"`
	AttacksDetected       AttacksDetected `json:"attacksDetected"`
}

type HeartbeatStats struct {
	StartedAt int64                `json:"startedAt"`
	EndedAt   int64                `json:"endedAt"`
	Sinks     map[string]SinkStats `json:"sinks"`
	Requests  RequestStats         `json:"requests"`
}

type Hostname struct {
	Hostname string `json:"hostname"`
	Port     uint32 `json:"port,omitempty"`
}

type HeartbeatEvent struct {
	Envelope
	Stats     HeartbeatStats `json:"stats"`
	Hostnames []Hostname     `json:"hostnames"`
}

func (*HeartbeatEvent) Type() EventType { return EventHeartbeat }
func (*HeartbeatEvent) isEvent()        {}

func (e *HeartbeatEvent) MarshalJSON() ([]byte, error) {
	type alias HeartbeatEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		*alias
	}{EventHeartbeat, (*alias)(e)})
}

// ClientInfo is the parsed user agent of the attacking client.
type ClientInfo struct {
	Device  string `json:"device"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Locale  string `json:"locale,omitempty"`
}

// AttackRequest is the part of the request context shipped with an attack.
type AttackRequest struct {
	Method    string         `json:"method"`
	URL       string         `json:"url"`
	IPAddress string         `json:"ipAddress"`
	UserAgent string         `json:"userAgent"`
	Client    *ClientInfo    `json:"client,omitempty"`
	Headers   map[string]any `json:"headers"`
	Body      any            `json:"body"`
	Source    string         `json:"source"`
}

type DetectedAttackEvent struct {
	Envelope
	Request *AttackRequest `json:"request,omitempty"`
	Attack  Attack         `json:"attack"`
}

func (*DetectedAttackEvent) Type() EventType { return EventDetectedAttack }
func (*DetectedAttackEvent) isEvent()        {}

func (e *DetectedAttackEvent) MarshalJSON() ([]byte, error) {
	type alias DetectedAttackEvent
	return json.Marshal(struct {
		Type EventType `json:"type"`
		*alias
	}{EventDetectedAttack, (*alias)(e)})
}

// NewAttackRequest copies the reportable part of a request context.
func NewAttackRequest(c *Context) *AttackRequest {
	if c == nil {
		return nil
	}
	return &AttackRequest{
		Method:    c.Method,
		URL:       c.URL,
		IPAddress: c.RemoteAddress,
		UserAgent: c.Header("user-agent"),
		Headers:   redactHeaders(c.Headers),
		Body:      c.Body,
		Source:    c.Source,
	}
}

const Redacted = "[REDACTED]"

var credentialHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-csrf-token":        {},
	"x-xsrf-token":        {},
}

// redactHeaders copies headers with credential values replaced so that they
// never leave the process inside an event.
func redactHeaders(headers map[string]any) map[string]any {
	if headers == nil {
		return nil
	}
	out := make(map[string]any, len(headers))
	for name, value := range headers {
		if _, ok := credentialHeaders[strings.ToLower(name)]; ok {
			value = Redacted
		}
		out[name] = value
	}
	return out
}
