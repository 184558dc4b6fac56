package http

import (
	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listHostnamesHandler struct {
	logger *logrus.Logger
	agent  *agent.Agent
}

func NewListHostnamesHandler(logger *logrus.Logger, a *agent.Agent) Handler {
	return &listHostnamesHandler{
		logger: logger,
		agent:  a,
	}
}

// Handle @Summary List outbound hostnames
// @Description Returns the hostnames the application connected to since the last heartbeat
// @Tags Agent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.HostnamesOutput "Tracked hostnames"
// @Router /api/v1/agent/hostnames [get]
func (h *listHostnamesHandler) Handle(c *fiber.Ctx) error {
	hostnames := h.agent.Hostnames().AsArray()
	return c.Status(fiber.StatusOK).JSON(response.HostnamesOutput{
		Hostnames: hostnames,
		Count:     len(hostnames),
	})
}

type clearHostnamesHandler struct {
	logger *logrus.Logger
	agent  *agent.Agent
}

func NewClearHostnamesHandler(logger *logrus.Logger, a *agent.Agent) Handler {
	return &clearHostnamesHandler{
		logger: logger,
		agent:  a,
	}
}

// Handle @Summary Clear outbound hostnames
// @Description Forgets every tracked hostname
// @Tags Agent
// @Security BearerAuth
// @Success 204 "Hostnames cleared"
// @Router /api/v1/agent/hostnames [delete]
func (h *clearHostnamesHandler) Handle(c *fiber.Ctx) error {
	h.agent.Hostnames().Clear()
	h.logger.Info("tracked hostnames cleared")
	return c.SendStatus(fiber.StatusNoContent)
}
