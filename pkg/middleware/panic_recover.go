package middleware

import (
	"errors"

	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type panicRecoverMiddleware struct {
	logger *logrus.Logger
}

func NewPanicRecoverMiddleware(logger *logrus.Logger) Middleware {
	return &panicRecoverMiddleware{logger: logger}
}

// Middleware turns handler panics into a 500. A panic carrying a blocking
// error keeps its message so the caller sees why the request was refused.
func (m *panicRecoverMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			message := "Internal server error"
			if rErr, ok := r.(error); ok && errors.Is(rErr, types.ErrBlocked) {
				message = rErr.Error()
			}
			m.logger.WithFields(logrus.Fields{
				"error": r,
				"path":  c.Path(),
			}).Error("HTTP server panic recovered")

			err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
		}()

		return c.Next()
	}
}
