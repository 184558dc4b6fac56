package middleware

import (
	"errors"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/infra/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const bearerScheme = "bearer"

var (
	errMissingAuthorization   = errors.New("authorization required")
	errMalformedAuthorization = errors.New("invalid authorization format")
)

// adminAuthMiddleware only lets through requests carrying an admin token
// issued by the jwt manager.
type adminAuthMiddleware struct {
	logger     *logrus.Logger
	jwtManager jwt.Manager
}

func NewAdminAuthMiddleware(logger *logrus.Logger, jwtManager jwt.Manager) Middleware {
	return &adminAuthMiddleware{
		logger:     logger,
		jwtManager: jwtManager,
	}
}

func (m *adminAuthMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return m.reject(c, err, err.Error())
		}
		if err := m.jwtManager.ValidateToken(token); err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				return m.reject(c, err, "token expired")
			}
			return m.reject(c, err, "invalid token")
		}
		return c.Next()
	}
}

func (m *adminAuthMiddleware) reject(c *fiber.Ctx, err error, message string) error {
	m.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Path(),
		"method": c.Method(),
	}).Debug("admin request rejected")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
}

// bearerToken extracts the token of an "Authorization: Bearer <token>"
// header. The scheme is case insensitive.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthorization
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", errMalformedAuthorization
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errMalformedAuthorization
	}
	return token, nil
}
