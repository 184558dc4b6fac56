package middleware

import (
	"github.com/NeuralTrust/TrustShield/pkg/common"
	"github.com/NeuralTrust/TrustShield/pkg/requestcontext"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestObserver is told about every request entering the application.
type RequestObserver interface {
	OnRequest()
}

type requestContextMiddleware struct {
	logger   *logrus.Logger
	observer RequestObserver
}

func NewRequestContextMiddleware(logger *logrus.Logger, observer RequestObserver) Middleware {
	return &requestContextMiddleware{
		logger:   logger,
		observer: observer,
	}
}

// Middleware binds a snapshot of the request to the user context so sinks
// reached from the handler can attribute their calls to it.
func (m *requestContextMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(common.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(common.RequestIDHeader, requestID)

		rc := requestcontext.FromFiber(c)
		c.SetUserContext(requestcontext.With(c.UserContext(), rc))
		if m.observer != nil {
			m.observer.OnRequest()
		}

		m.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     rc.Method,
			"path":       c.Path(),
		}).Debug("request context bound")
		return c.Next()
	}
}
