package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/TrustShield/internal/sampleapp"
	"github.com/NeuralTrust/TrustShield/pkg/agent"
	"github.com/NeuralTrust/TrustShield/pkg/agent/api"
	"github.com/NeuralTrust/TrustShield/pkg/config"
	handlers "github.com/NeuralTrust/TrustShield/pkg/handlers/http"
	"github.com/NeuralTrust/TrustShield/pkg/infra/database"
	"github.com/NeuralTrust/TrustShield/pkg/infra/jwt"
	infraLogger "github.com/NeuralTrust/TrustShield/pkg/infra/logger"
	_ "github.com/NeuralTrust/TrustShield/pkg/infra/migrations"
	"github.com/NeuralTrust/TrustShield/pkg/middleware"
	"github.com/NeuralTrust/TrustShield/pkg/server"
	"github.com/NeuralTrust/TrustShield/pkg/server/router"
	"github.com/NeuralTrust/TrustShield/pkg/sinks/documentstore"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	if err := config.Load("../../config"); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	if getCommand() == "admin-token" {
		token, err := jwt.NewJwtManager(&cfg.Server).CreateToken()
		if err != nil {
			log.Fatalf("Failed to create admin token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger, cleanupLogger, err := infraLogger.NewLogger(infraLogger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer cleanupLogger()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	reporter, closeReporter, err := api.NewReporter(api.FactoryDeps{
		Reporting: cfg.Reporting,
		Kafka:     cfg.Kafka,
		Redis:     redisClient,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize event reporter: %v", err)
	}
	defer closeReporter()

	shield := agent.New(agent.Options{
		Block:             cfg.Agent.Block,
		Token:             api.Token(cfg.Agent.Token),
		API:               reporter,
		Logger:            logger,
		Serverless:        cfg.Agent.Serverless,
		Env:               cfg.Agent.Env,
		HeartbeatInterval: cfg.Agent.HeartbeatInterval,
		Workers:           cfg.Agent.Workers,
		QueueSize:         cfg.Agent.QueueSize,
		Metrics:           cfg.Metrics.Enabled,
	})
	interceptor := shield.Start(ctx, sampleapp.Wrappers())
	defer shield.Stop()

	var gormDB *gorm.DB
	if cfg.Database.Host != "" {
		db, err := database.NewDB(ctx, logger, &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, interceptor)
		if err != nil {
			logger.Fatalf("Failed to initialize database: %v", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Error("failed to close database")
			}
		}()
		gormDB = db.DB
	} else {
		logger.Warn("database host is not configured, /cats is disabled")
	}

	users := documentstore.NewMemoryCollection(
		documentstore.Document{"login": "admin", "password": "admin"},
		documentstore.Document{"login": "guest", "password": "guest"},
	)

	app := sampleapp.New(sampleapp.Deps{
		Logger:      logger,
		Interceptor: interceptor,
		Observer:    shield,
		DB:          gormDB,
		Users:       documentstore.Guard(users, interceptor),
	})

	adminServer := server.NewAdminServer(server.AdminServerDI{
		Config:  cfg,
		Logger:  logger,
		Routers: []router.ServerRouter{router.NewAdminRouter(adminMiddlewares(cfg, logger), adminHandlers(logger, shield))},
	})

	g := &errgroup.Group{}
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.WithField("addr", addr).Info("starting sample application")
		return app.Listen(addr)
	})
	g.Go(adminServer.Run)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	failed := make(chan error, 1)
	go func() { failed <- g.Wait() }()

	select {
	case <-quit:
		fmt.Println("shutting down servers...")
	case err := <-failed:
		if err != nil {
			logger.WithError(err).Error("server stopped unexpectedly")
		}
	}

	if err := errors.Join(app.Shutdown(), adminServer.Shutdown()); err != nil {
		logger.WithError(err).Error("failed to shut down servers")
	}
	fmt.Println("servers exited")
}

func getCommand() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return "serve"
}

func adminMiddlewares(cfg *config.Config, logger *logrus.Logger) *middleware.Transport {
	middlewares := []middleware.Middleware{middleware.NewPanicRecoverMiddleware(logger)}
	if cfg.Server.SecretKey != "" {
		middlewares = append(middlewares, middleware.NewAdminAuthMiddleware(logger, jwt.NewJwtManager(&cfg.Server)))
	} else {
		logger.Warn("server secret key is not set, the admin API is unauthenticated")
	}
	return middleware.NewTransport(middlewares...)
}

func adminHandlers(logger *logrus.Logger, shield *agent.Agent) handlers.HandlerTransport {
	return &handlers.HandlerTransportDTO{
		GetVersionHandler:     handlers.NewGetVersionHandler(logger),
		GetAgentHandler:       handlers.NewGetAgentHandler(logger, shield),
		ListHostnamesHandler:  handlers.NewListHostnamesHandler(logger, shield),
		ClearHostnamesHandler: handlers.NewClearHostnamesHandler(logger, shield),
		HeartbeatHandler:      handlers.NewHeartbeatHandler(logger, shield),
	}
}
