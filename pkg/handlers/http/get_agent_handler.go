package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getAgentHandler struct {
	logger *logrus.Logger
	agent  *agent.Agent
}

func NewGetAgentHandler(logger *logrus.Logger, a *agent.Agent) Handler {
	return &getAgentHandler{
		logger: logger,
		agent:  a,
	}
}

// Handle @Summary Get agent status
// @Description Returns the operating mode, host description and the statistics collected since the last heartbeat
// @Tags Agent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.AgentOutput "Agent status"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /api/v1/agent [get]
func (h *getAgentHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(response.AgentOutput{
		ID:       h.agent.ID(),
		Blocking: h.agent.ShouldBlock(),
		Started:  h.agent.Started(),
		Info:     h.agent.Info(),
		Stats:    h.agent.Stats(),
	})
}
