package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/dto"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/export"
	middleware "github.com/octobees/contact-finder/internal/middleware"
	"github.com/octobees/contact-finder/internal/repository"
	"github.com/octobees/contact-finder/internal/service"
)

// ResearchRunner runs one research request. *service.ResearchService satisfies it.
type ResearchRunner interface {
	Run(ctx context.Context, req entity.ResearchRequest) (*entity.ResearchResult, error)
}

// ResearchHandler runs research requests and serves stored results.
type ResearchHandler struct {
	runner ResearchRunner
	repo   repository.ResultsRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewResearchHandler constructs a ResearchHandler.
func NewResearchHandler(runner ResearchRunner, repo repository.ResultsRepository, logger *zap.Logger) *ResearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchHandler{runner: runner, repo: repo, logger: logger, now: time.Now}
}

// Create handles POST /research requests.
func (h *ResearchHandler) Create(c echo.Context) error {
	var req dto.ResearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	ctx := service.WithRequestID(c.Request().Context(), middleware.RequestIDFromContext(c))
	result, err := h.runner.Run(ctx, req.ToEntity())
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Error())
		}
		h.logger.Error("research failed", zap.String("request_id", middleware.RequestIDFromContext(c)), zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to run research")
	}

	// the result is stored even when the client went away mid-run
	if err := h.repo.Save(context.WithoutCancel(ctx), result); err != nil {
		h.logger.Error("store research result",
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.String("research_id", result.ID.String()),
			zap.Error(err),
		)
		return Error(c, http.StatusInternalServerError, "unable to store research result")
	}

	message := fmt.Sprintf("found %d contacts", len(result.Contacts))
	if result.Metadata.Cancelled {
		message = "research cancelled, partial results stored"
	}
	return Success(c, http.StatusCreated, message, result)
}

// List handles GET /research requests.
func (h *ResearchHandler) List(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Error(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	summaries, err := h.repo.List(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("list research results", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to list research results")
	}
	if summaries == nil {
		summaries = []entity.ResearchSummary{}
	}
	return Success(c, http.StatusOK, "", dto.ResearchList{Results: summaries, Limit: limit})
}

// Get handles GET /research/:id requests.
func (h *ResearchHandler) Get(c echo.Context) error {
	result, status, message := h.load(c)
	if result == nil {
		return Error(c, status, message)
	}
	return Success(c, http.StatusOK, "", result)
}

// Export handles GET /research/:id/export?format=csv|json|text requests.
func (h *ResearchHandler) Export(c echo.Context) error {
	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	result, status, message := h.load(c)
	if result == nil {
		return Error(c, status, message)
	}

	body, err := export.Render(result, format)
	if err != nil {
		h.logger.Error("render export", zap.String("research_id", result.ID.String()), zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to export research result")
	}

	filename := export.Filename(result.Request.CompanyName, h.now(), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, format.ContentType(), body)
}

func (h *ResearchHandler) load(c echo.Context) (*entity.ResearchResult, int, string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, http.StatusBadRequest, "invalid research id"
	}

	result, err := h.repo.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			return nil, http.StatusNotFound, "research result not found"
		}
		h.logger.Error("load research result", zap.String("research_id", id.String()), zap.Error(err))
		return nil, http.StatusInternalServerError, "unable to load research result"
	}
	return result, 0, ""
}
