package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport interface {
	GetTransport() HandlerTransport
}

type HandlerTransportDTO struct {
	GetVersionHandler Handler

	// Agent
	GetAgentHandler       Handler
	ListHostnamesHandler  Handler
	ClearHostnamesHandler Handler
	HeartbeatHandler      Handler
}

func (t *HandlerTransportDTO) GetTransport() HandlerTransport {
	return t
}
