package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/dto"
	"github.com/octobees/contact-finder/internal/entity"
)

func TestMethodsHandler_List(t *testing.T) {
	var gotProvider string
	h := NewMethodsHandler(func(req entity.ResearchRequest) map[entity.MethodKind]error {
		gotProvider = req.AIProvider
		return map[entity.MethodKind]error{
			entity.MethodWebsiteScraping: nil,
			entity.MethodWhoisLookup:     nil,
			entity.MethodAIAssistant:     adapter.MissingKey(entity.MethodAIAssistant, "ANTHROPIC_API_KEY"),
		}
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/methods?ai_provider=anthropic", nil), rec)
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotProvider != "anthropic" {
		t.Fatalf("expected provider to be forwarded, got %q", gotProvider)
	}

	var payload struct {
		Data []dto.MethodInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Data) != len(entity.AllMethods) {
		t.Fatalf("expected every method, got %+v", payload.Data)
	}

	byMethod := make(map[entity.MethodKind]dto.MethodInfo)
	for _, m := range payload.Data {
		byMethod[m.Method] = m
	}
	if !byMethod[entity.MethodWebsiteScraping].Available {
		t.Fatalf("expected scraping to be available")
	}
	if info := byMethod[entity.MethodAIAssistant]; info.Available || info.ErrorKind != string(adapter.KindMissingAPIKey) {
		t.Fatalf("unexpected ai info %+v", info)
	}
	if info := byMethod[entity.MethodWebSearch]; info.Available || info.ErrorKind != string(adapter.KindUnavailable) {
		t.Fatalf("expected unregistered search to be unavailable, got %+v", info)
	}
}
