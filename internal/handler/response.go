package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/octobees/contact-finder/internal/middleware"
)

// APIResponse describes the standard envelope returned by the API.
type APIResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format. The
// request id is echoed so operators can find the matching log entry.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:    "error",
		Message:   message,
		RequestID: middleware.RequestIDFromContext(c),
	}
	return c.JSON(status, payload)
}

// Health handles GET /healthz.
func Health(c echo.Context) error {
	return Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
}
