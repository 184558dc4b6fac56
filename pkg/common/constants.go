package common

import "time"

const (
	DefaultMaxEventsPerInterval = 100
	DefaultReportingInterval    = time.Hour
	DefaultHeartbeatInterval    = 10 * time.Minute
	DefaultReportTimeout        = 5 * time.Second

	MaxHostnames = 200

	TokenHeader        = "Authorization"
	RequestIDHeader    = "X-Request-Id"
	EventsPath         = "/api/runtime/events"
	SharedWindowKey    = "trustshield:reporting:window"
	ReportingTopic     = "trustshield.events"
	RequestSourceHTTP  = "net/http"
	RequestSourceFiber = "fiber"
)
