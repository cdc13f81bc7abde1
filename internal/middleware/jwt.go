package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/octobees/contact-finder/internal/auth"
)

// JWT validates bearer tokens and stores the operator in the request context.
// A nil manager disables the check, which is how the API runs when no
// operator account is configured.
func JWT(manager *authpkg.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if manager == nil {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized(c, "invalid authorization header")
			}

			claims, err := manager.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthorized(c, "invalid token")
			}

			c.Set(ContextKeyOperatorEmail, claims.Email)
			c.Set(ContextKeyTokenScope, claims.Scope)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="contact-finder"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"status": "error", "message": message})
}

// OperatorFromContext returns the authenticated operator email, if any.
func OperatorFromContext(c echo.Context) string {
	email, _ := c.Get(ContextKeyOperatorEmail).(string)
	return email
}
