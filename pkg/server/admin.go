package server

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/NeuralTrust/TrustShield/pkg/infra/prometheus"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	AdminServer struct {
		*BaseServer
	}
)

// NewAdminServer exposes the agent status API and the metrics listener.
func NewAdminServer(di AdminServerDI) *AdminServer {
	if di.Config.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{
			EnableSinkCalls: di.Config.Metrics.EnableSinkCalls,
			EnableReports:   di.Config.Metrics.EnableReports,
		})
	}
	return &AdminServer{
		BaseServer: NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...),
	}
}

func (s *AdminServer) Run() error {
	s.setupMetricsEndpoint()
	addr := fmt.Sprintf(":%d", s.Config.Server.AdminPort)
	s.Logger.WithField("addr", addr).Info("starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) Shutdown() error {
	return errors.Join(s.Router.Shutdown(), s.shutdownMetrics())
}
