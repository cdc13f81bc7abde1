package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/app"
	"github.com/octobees/contact-finder/internal/auth"
	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/handler"
	middlewarepkg "github.com/octobees/contact-finder/internal/middleware"
	"github.com/octobees/contact-finder/internal/router"
	"github.com/octobees/contact-finder/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, closer, err := app.OpenResults(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open result store", zap.Error(err))
	}
	defer closer.Close()

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	} else {
		logger.Warn("OPERATOR_EMAIL or OPERATOR_PASSWORD_HASH not set, research API is public")
	}
	authService := service.NewAuthService(cfg.OperatorEmail, cfg.OperatorPasswordHash, jwtManager)

	research := app.NewResearch(cfg, logger)
	for method, reason := range research.Registry.Availability(entity.ResearchRequest{}) {
		if reason != nil {
			logger.Info("research method unavailable", zap.String("method", string(method)), zap.Error(reason))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.WriteTimeout = app.ResearchWriteTimeout(cfg)

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Research: handler.NewResearchHandler(research.Service, results, logger),
		Methods:  handler.NewMethodsHandler(research.Registry.Availability),
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
