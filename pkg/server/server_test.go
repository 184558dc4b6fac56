package server

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/config"
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/infra/jwt"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustShield/pkg/middleware"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenTransport struct{}

func (brokenTransport) GetTransport() handlers.HandlerTransport { return nil }

func newAdminServer(t *testing.T) (*AdminServer, jwt.Manager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		Server:  config.ServerConfig{SecretKey: "admin-secret"},
		Metrics: config.MetricsConfig{Enabled: true, EnableSinkCalls: true, EnableReports: true},
	}
	a := agent.New(agent.Options{Block: true, API: api.NewForTesting(), Logger: logger, Metrics: true})
	jwtManager := jwt.NewJwtManager(&cfg.Server)

	handlerTransport := &handlers.HandlerTransportDTO{
		GetVersionHandler:     handlers.NewGetVersionHandler(logger),
		GetAgentHandler:       handlers.NewGetAgentHandler(logger, a),
		ListHostnamesHandler:  handlers.NewListHostnamesHandler(logger, a),
		ClearHostnamesHandler: handlers.NewClearHostnamesHandler(logger, a),
		HeartbeatHandler:      handlers.NewHeartbeatHandler(logger, a),
	}
	middlewareTransport := middleware.NewTransport(
		middleware.NewPanicRecoverMiddleware(logger),
		middleware.NewAdminAuthMiddleware(logger, jwtManager),
	)

	s := NewAdminServer(AdminServerDI{
		Config:  cfg,
		Logger:  logger,
		Routers: []router.ServerRouter{router.NewAdminRouter(middlewareTransport, handlerTransport)},
	})
	a.OnConnectHostname("api.example.com", 443)
	return s, jwtManager
}

func TestAdminServer_PublicRoutes(t *testing.T) {
	s, _ := newAdminServer(t)

	for _, path := range []string{HealthPath, "/version"} {
		resp, err := s.Router.Test(httptest.NewRequest("GET", path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestAdminServer_AgentRoutesRequireToken(t *testing.T) {
	s, jwtManager := newAdminServer(t)

	resp, err := s.Router.Test(httptest.NewRequest("GET", "/api/v1/agent", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwtManager.CreateToken()
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/agent/hostnames", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = s.Router.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "api.example.com")
}

func TestAdminServer_MetricsEndpoint(t *testing.T) {
	s, _ := newAdminServer(t)
	prometheus.SinkCallsTotal.WithLabelValues("os/exec", "blocked").Inc()

	resp, err := s.MetricsApp().Test(httptest.NewRequest("GET", MetricsPath, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trustshield_sink_calls_total")
}

func TestAdminRouter_InvalidTransport(t *testing.T) {
	r := router.NewAdminRouter(middleware.NewTransport(), brokenTransport{})
	assert.ErrorIs(t, r.BuildRoutes(fiber.New()), router.ErrInvalidHandlerTransport)
}
