package api

import (
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReporter_Disabled(t *testing.T) {
	for _, transport := range []string{"", "none", " NONE "} {
		reporter, closer, err := NewReporter(FactoryDeps{Reporting: config.ReportingConfig{Transport: transport}})
		require.NoError(t, err)
		assert.Nil(t, reporter)
		closer()
	}
}

func TestNewReporter_HTTP(t *testing.T) {
	logger, _ := test.NewNullLogger()
	reporter, closer, err := NewReporter(FactoryDeps{
		Reporting: config.ReportingConfig{
			Transport:            "http",
			Endpoint:             "https://guard.example.com/",
			Timeout:              time.Second,
			MaxEventsPerInterval: 3,
			Interval:             time.Minute,
			BreakerMaxFailures:   5,
			BreakerTimeout:       time.Second,
		},
		Logger: logger,
	})
	require.NoError(t, err)
	defer closer()

	limited, ok := reporter.(*RateLimitedClientSide)
	require.True(t, ok)
	httpReporter, ok := limited.api.(*HTTPReporter)
	require.True(t, ok)
	assert.Equal(t, "https://guard.example.com", httpReporter.baseURL)

	window, ok := limited.window.(*MemoryWindow)
	require.True(t, ok)
	assert.Equal(t, 3, window.max)
	assert.Equal(t, time.Minute, window.interval)
}

func TestNewReporter_SharedWindow(t *testing.T) {
	logger, hook := test.NewNullLogger()
	reporting := config.ReportingConfig{Transport: "http", Endpoint: "https://guard.example.com", SharedWindow: true}

	reporter, _, err := NewReporter(FactoryDeps{Reporting: reporting, Logger: logger})
	require.NoError(t, err)
	_, ok := reporter.(*RateLimitedClientSide).window.(*MemoryWindow)
	assert.True(t, ok)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "falling back to memory")

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	reporter, _, err = NewReporter(FactoryDeps{Reporting: reporting, Redis: client, Logger: logger})
	require.NoError(t, err)
	_, ok = reporter.(*RateLimitedClientSide).window.(*RedisWindow)
	assert.True(t, ok)
}

func TestNewReporter_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, _, err := NewReporter(FactoryDeps{Reporting: config.ReportingConfig{Transport: "http"}, Logger: logger})
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	_, _, err = NewReporter(FactoryDeps{Reporting: config.ReportingConfig{Transport: "kafka"}, Logger: logger})
	assert.EqualError(t, err, "kafka host is required")

	_, _, err = NewReporter(FactoryDeps{Reporting: config.ReportingConfig{Transport: "carrier-pigeon"}, Logger: logger})
	assert.EqualError(t, err, "unknown reporting transport: carrier-pigeon")
}
