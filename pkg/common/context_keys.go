package common

type contextKey string

const (
	RequestContextKey contextKey = "request_context"
)
