// Package sampleapp is a deliberately vulnerable fiber application used to
// exercise every sink end to end.
package sampleapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/NeuralTrust/TrustShield/pkg/hooks"
	"github.com/NeuralTrust/TrustShield/pkg/middleware"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/childprocess"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/documentstore"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/httprequest"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/sqldb"
	"github.com/NeuralTrust/TrustShield/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxFetchedBody = 64 * 1024

// Wrappers lists the sinks the sample application relies on.
func Wrappers() []hooks.Wrapper {
	return []hooks.Wrapper{
		childprocess.Wrapper{},
		httprequest.Wrapper{},
		sqldb.Wrapper{Dialect: sqldb.DialectPostgres, Package: "github.com/lib/pq"},
		documentstore.Wrapper{},
	}
}

type Deps struct {
	Logger      *logrus.Logger
	Interceptor *hooks.Interceptor
	Observer    middleware.RequestObserver
	Runner      childprocess.Runner
	// DB may be nil, /cats then answers 503.
	DB         *gorm.DB
	Users      documentstore.Collection
	HTTPClient *http.Client
}

type app struct {
	logger      *logrus.Logger
	interceptor *hooks.Interceptor
	runner      childprocess.Runner
	db          *gorm.DB
	users       documentstore.Collection
	client      *http.Client
}

func New(deps Deps) *fiber.App {
	a := &app{
		logger:      deps.Logger,
		interceptor: deps.Interceptor,
		runner:      deps.Runner,
		db:          deps.DB,
		users:       deps.Users,
		client:      deps.HTTPClient,
	}
	if a.runner == nil {
		a.runner = childprocess.ExecRunner{}
	}
	if a.client == nil {
		a.client = httprequest.NewClient(deps.Interceptor)
	}

	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          a.handleError,
	})
	f.Use(
		middleware.NewPanicRecoverMiddleware(deps.Logger).Middleware(),
		middleware.NewRequestContextMiddleware(deps.Logger, deps.Observer).Middleware(),
	)
	f.Post("/ls", a.listDirectory)
	f.Post("/cats", a.createCat)
	f.Post("/users/search", a.searchUser)
	f.Get("/fetch", a.fetch)
	return f
}

func (a *app) handleError(c *fiber.Ctx, err error) error {
	if types.IsBlocked(err) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}
	a.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

type lsRequest struct {
	Directory string `json:"directory"`
}

func (a *app) listDirectory(c *fiber.Ctx) error {
	var req lsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	out, err := childprocess.Exec(c.UserContext(), a.interceptor, a.runner, "ls "+req.Directory)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).SendString(string(out))
}

type catRequest struct {
	Petname string `json:"petname"`
}

func (a *app) createCat(c *fiber.Ctx) error {
	if a.db == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "database is not configured")
	}
	var req catRequest
	if err := c.BodyParser(&req); err != nil || req.Petname == "" {
		return fiber.NewError(fiber.StatusBadRequest, "petname is required")
	}
	// The statement is concatenated on purpose.
	query := "INSERT INTO cats (petname) VALUES ('" + req.Petname + "');"
	if err := a.db.WithContext(c.UserContext()).Exec(query).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"petname": req.Petname})
}

func (a *app) searchUser(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	filter := documentstore.Filter{}
	for _, key := range []string{"login", "password"} {
		if v, ok := body[key]; ok {
			filter[key] = v
		}
	}
	if len(filter) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "login is required")
	}
	user, err := a.users.FindOne(c.UserContext(), filter)
	if errors.Is(err, documentstore.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"login": user["login"]})
}

func (a *app) fetch(c *fiber.Ctx) error {
	target := c.Query("url")
	if target == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	body, status, err := a.get(c.UserContext(), target)
	if err != nil {
		if types.IsBlocked(err) {
			return err
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.Status(status).SendString(body)
}

func (a *app) get(ctx context.Context, target string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, fmt.Errorf("invalid url: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	var sb strings.Builder
	if _, err := io.Copy(&sb, io.LimitReader(resp.Body, maxFetchedBody)); err != nil {
		return "", 0, err
	}
	return sb.String(), resp.StatusCode, nil
}
