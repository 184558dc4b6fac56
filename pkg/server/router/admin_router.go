package router

import (
	"errors"

	_ "github.com/NeuralTrust/TrustShield/docs"
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	handlerTransport, ok := r.handlerTransport.GetTransport().(*handlers.HandlerTransportDTO)
	if !ok {
		return ErrInvalidHandlerTransport
	}

	router.Get("/docs/*", swagger.HandlerDefault)

	router.Get("/version", handlerTransport.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		if r.middlewareTransport != nil {
			if mws := r.middlewareTransport.GetMiddlewares(); len(mws) > 0 {
				v1.Use(mws...)
			}
		}

		agent := v1.Group("/agent")
		{
			agent.Get("", handlerTransport.GetAgentHandler.Handle)
			agent.Get("/hostnames", handlerTransport.ListHostnamesHandler.Handle)
			agent.Delete("/hostnames", handlerTransport.ClearHostnamesHandler.Handle)
			agent.Post("/heartbeat", handlerTransport.HeartbeatHandler.Handle)
		}
	}
	return nil
}
