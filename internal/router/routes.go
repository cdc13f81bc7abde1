package router

import (
	"github.com/labstack/echo/v4"

	"github.com/octobees/contact-finder/internal/auth"
	"github.com/octobees/contact-finder/internal/config"
	"github.com/octobees/contact-finder/internal/handler"
	"github.com/octobees/contact-finder/internal/metrics"
	middlewarepkg "github.com/octobees/contact-finder/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Research *handler.ResearchHandler
	Methods  *handler.MethodsHandler
}

// Register wires all HTTP routes for the API. A nil jwtManager leaves the
// research routes public, which is how single-user deployments run.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	if handlers.Auth != nil && jwtManager != nil {
		e.POST("/auth/login", handlers.Auth.Login)
	}

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	secured.GET("/methods", handlers.Methods.List)

	research := secured.Group("/research")
	research.POST("", handlers.Research.Create, middlewarepkg.ResearchRateLimiter(cfg.RateLimitResearch))
	research.GET("", handlers.Research.List)
	research.GET("/:id", handlers.Research.Get)
	research.GET("/:id/export", handlers.Research.Export)
}
