package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/api"
	"github.com/DevADOBAN/Taskhub/auth"
	"github.com/DevADOBAN/Taskhub/config"
	"github.com/DevADOBAN/Taskhub/storage"
	"github.com/DevADOBAN/Taskhub/telemetry"
)

const serviceName = "taskhub-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}

	db, err := storage.Open(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}

	var store api.Storage = db
	var rc *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := storage.RedisOptions(cfg.RedisURL)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		rc = redis.NewClient(redisOpts)
		store = storage.NewCache(db, rc, cfg.TasksCacheTTL, logger)
		logger.WithField("ttl", cfg.TasksCacheTTL).Info("task list cache enabled")
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Fatalf("tokens: %v", err)
	}
	accounts := auth.NewService(db, auth.NewHasher(cfg.BcryptCost), tokens, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(api.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, store, accounts, accounts, logger)

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	if rc != nil {
		if err := rc.Close(); err != nil {
			logger.WithError(err).Warn("redis close")
		}
	}
	if err := db.Close(); err != nil {
		logger.WithError(err).Warn("storage close")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("telemetry shutdown")
	}
}
