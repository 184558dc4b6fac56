package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/infra/httpx"
	"github.com/NeuralTrust/TrustShield/pkg/version"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	TransportNone  = "none"
	TransportHTTP  = "http"
	TransportKafka = "kafka"

	defaultBreakerFailures = 5
)

var ErrMissingEndpoint = errors.New("reporting endpoint is required for the http transport")

type FactoryDeps struct {
	Reporting config.ReportingConfig
	Kafka     config.KafkaConfig
	// Redis backs the shared window when Reporting.SharedWindow is set.
	Redis  *redis.Client
	Logger *logrus.Logger
}

// NewReporter builds the configured transport behind the client side rate
// limiter. A nil API means reporting is disabled. The returned func releases
// the transport.
func NewReporter(deps FactoryDeps) (API, func(), error) {
	noop := func() {}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	var (
		transport API
		closer    = noop
	)
	switch name := strings.ToLower(strings.TrimSpace(deps.Reporting.Transport)); name {
	case "", TransportNone:
		logger.Info("event reporting is disabled")
		return nil, noop, nil
	case TransportHTTP:
		if deps.Reporting.Endpoint == "" {
			return nil, noop, ErrMissingEndpoint
		}
		maxFailures := deps.Reporting.BreakerMaxFailures
		if maxFailures == 0 {
			maxFailures = defaultBreakerFailures
		}
		breaker := httpx.NewCircuitBreaker("reporting", deps.Reporting.BreakerTimeout, maxFailures, logger)
		client := httpx.NewFastHTTPClient(deps.Reporting.Timeout, version.UserAgent())
		transport = NewHTTPReporter(deps.Reporting.Endpoint, client, breaker, logger)
	case TransportKafka:
		conf, err := DecodeKafkaConfig(map[string]interface{}{
			"host":  deps.Kafka.Host,
			"port":  deps.Kafka.Port,
			"topic": deps.Kafka.Topic,
		})
		if err != nil {
			return nil, noop, err
		}
		reporter, err := NewKafkaReporter(conf)
		if err != nil {
			return nil, noop, err
		}
		transport, closer = reporter, reporter.Close
	default:
		return nil, noop, fmt.Errorf("unknown reporting transport: %s", deps.Reporting.Transport)
	}

	limits := RateLimitOptions{
		MaxEventsPerInterval: deps.Reporting.MaxEventsPerInterval,
		Interval:             deps.Reporting.Interval,
	}
	return NewRateLimitedClientSide(transport, newWindow(deps, limits, logger), nil), closer, nil
}

func newWindow(deps FactoryDeps, limits RateLimitOptions, logger *logrus.Logger) Window {
	if deps.Reporting.SharedWindow {
		if deps.Redis != nil {
			return NewRedisWindow(deps.Redis, limits, nil)
		}
		logger.Warn("shared reporting window requested without redis, falling back to memory")
	}
	return NewMemoryWindow(limits)
}
