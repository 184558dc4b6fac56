package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type heartbeatHandler struct {
	logger *logrus.Logger
	agent  *agent.Agent
}

func NewHeartbeatHandler(logger *logrus.Logger, a *agent.Agent) Handler {
	return &heartbeatHandler{
		logger: logger,
		agent:  a,
	}
}

// Handle @Summary Send a heartbeat now
// @Description Reports the current statistics and hostnames immediately and starts a new collection period
// @Tags Agent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.HeartbeatOutput "Reporting result"
// @Failure 502 {object} map[string]interface{} "Reporting transport failed"
// @Router /api/v1/agent/heartbeat [post]
func (h *heartbeatHandler) Handle(c *fiber.Ctx) error {
	result, err := h.agent.Heartbeat(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to send heartbeat")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(response.HeartbeatOutput{
		Success: result.Success,
		Error:   result.Error,
	})
}
