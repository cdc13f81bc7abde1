package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/dto"
	"github.com/octobees/contact-finder/internal/entity"
)

// AvailabilityFunc reports, per method, why it cannot run for req.
type AvailabilityFunc func(req entity.ResearchRequest) map[entity.MethodKind]error

// MethodsHandler lists research methods for the research form.
type MethodsHandler struct {
	availability AvailabilityFunc
}

// NewMethodsHandler constructs a MethodsHandler.
func NewMethodsHandler(availability AvailabilityFunc) *MethodsHandler {
	return &MethodsHandler{availability: availability}
}

// List handles GET /methods. The optional ai_provider query parameter checks
// the key of a specific AI provider.
func (h *MethodsHandler) List(c echo.Context) error {
	return Success(c, http.StatusOK, "", Methods(h.availability(entity.ResearchRequest{
		AIProvider: c.QueryParam("ai_provider"),
	})))
}

// Methods converts an availability map into the listing shown to operators.
func Methods(availability map[entity.MethodKind]error) []dto.MethodInfo {
	out := make([]dto.MethodInfo, 0, len(entity.AllMethods))
	for _, m := range entity.AllMethods {
		info := dto.MethodInfo{Method: m, Label: m.Label()}
		err, registered := availability[m]
		switch {
		case !registered:
			info.Reason = "not available in this deployment"
			info.ErrorKind = string(adapter.KindUnavailable)
		case err != nil:
			info.Reason = err.Error()
			info.ErrorKind = string(adapter.KindOf(err))
		default:
			info.Available = true
		}
		out = append(out, info)
	}
	return out
}
