package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/NeuralTrust/TrustShield/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, a *agent.Agent) *fiber.App {
	t.Helper()
	logger, _ := test.NewNullLogger()
	app := fiber.New()
	app.Get("/version", NewGetVersionHandler(logger).Handle)
	app.Get("/api/v1/agent", NewGetAgentHandler(logger, a).Handle)
	app.Get("/api/v1/agent/hostnames", NewListHostnamesHandler(logger, a).Handle)
	app.Delete("/api/v1/agent/hostnames", NewClearHostnamesHandler(logger, a).Handle)
	app.Post("/api/v1/agent/heartbeat", NewHeartbeatHandler(logger, a).Handle)
	return app
}

func newTestAgent(t *testing.T, reporter api.API) *agent.Agent {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return agent.New(agent.Options{Block: true, Token: "token", API: reporter, Logger: logger})
}

func TestGetVersionHandler(t *testing.T) {
	app := newTestApp(t, newTestAgent(t, api.NewForTesting()))

	resp, err := app.Test(httptest.NewRequest("GET", "/version", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var info version.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, version.Version, info.Version)
	assert.Equal(t, "TrustShield", info.AppName)
}

func TestGetAgentHandler(t *testing.T) {
	a := newTestAgent(t, api.NewForTesting())
	a.OnInspectedCall("os/exec", false, true)
	app := newTestApp(t, a)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/agent", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out response.AgentOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, a.ID(), out.ID)
	assert.True(t, out.Blocking)
	assert.False(t, out.Started)
	assert.False(t, out.Info.DryMode)
	assert.Equal(t, version.Version, out.Info.Version)
	require.Contains(t, out.Stats.Sinks, "os/exec")
	assert.Equal(t, int64(1), out.Stats.Sinks["os/exec"].Total)
}

func TestHostnamesHandlers(t *testing.T) {
	a := newTestAgent(t, api.NewForTesting())
	a.OnConnectHostname("api.example.com", 443)
	a.OnConnectHostname("cdn.example.com", 80)
	app := newTestApp(t, a)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/agent/hostnames", nil), -1)
	require.NoError(t, err)
	var out response.HostnamesOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []types.Hostname{
		{Hostname: "api.example.com", Port: 443},
		{Hostname: "cdn.example.com", Port: 80},
	}, out.Hostnames)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/agent/hostnames", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, a.Hostnames().Len())
}

func TestHeartbeatHandler(t *testing.T) {
	reporter := api.NewForTesting()
	a := newTestAgent(t, reporter)
	a.OnConnectHostname("api.example.com", 443)
	app := newTestApp(t, a)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/agent/heartbeat", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out response.HeartbeatOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)

	events := reporter.Events()
	require.Len(t, events, 1)
	heartbeat, ok := events[0].(*types.HeartbeatEvent)
	require.True(t, ok)
	assert.Equal(t, []types.Hostname{{Hostname: "api.example.com", Port: 443}}, heartbeat.Hostnames)
	assert.Equal(t, 1, a.Hostnames().Len())
}

func TestHeartbeatHandler_TransportError(t *testing.T) {
	app := newTestApp(t, newTestAgent(t, api.ThatThrows{}))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/agent/heartbeat", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestHeartbeatHandler_RejectedResult(t *testing.T) {
	reporter := api.NewForTesting()
	reporter.SetResult(api.Failed(api.ErrorInvalidToken))
	app := newTestApp(t, newTestAgent(t, reporter))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/agent/heartbeat", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out response.HeartbeatOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Success)
	assert.Equal(t, api.ErrorInvalidToken, out.Error)
}
