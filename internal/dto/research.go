package dto

import (
	"slices"

	"github.com/octobees/contact-finder/internal/entity"
)

// ResearchRequest is the body of POST /research, sent as JSON or as an
// urlencoded form with one methods key per checked method. Omitting methods
// selects every method; an empty JSON list selects none.
type ResearchRequest struct {
	CompanyName     string   `json:"company_name" form:"company_name"`
	Website         string   `json:"website" form:"website"`
	Methods         []string `json:"methods" form:"methods"`
	MaxPages        int      `json:"max_pages" form:"max_pages"`
	SearchDepth     string   `json:"search_depth" form:"search_depth"`
	Country         string   `json:"country" form:"country"`
	Industry        string   `json:"industry" form:"industry"`
	AIProvider      string   `json:"ai_provider" form:"ai_provider"`
	AIModel         string   `json:"ai_model" form:"ai_model"`
	IncludePatterns bool     `json:"include_patterns" form:"include_patterns"`
}

// ToEntity converts the payload; method names are validated by the service.
func (r ResearchRequest) ToEntity() entity.ResearchRequest {
	methods := entity.AllMethods
	if r.Methods != nil {
		methods = make([]entity.MethodKind, 0, len(r.Methods))
		for _, m := range r.Methods {
			methods = append(methods, entity.MethodKind(m))
		}
	}
	return entity.ResearchRequest{
		CompanyName:     r.CompanyName,
		Website:         r.Website,
		Methods:         slices.Clone(methods),
		MaxPages:        r.MaxPages,
		SearchDepth:     entity.SearchDepth(r.SearchDepth),
		Country:         r.Country,
		Industry:        r.Industry,
		AIProvider:      r.AIProvider,
		AIModel:         r.AIModel,
		IncludePatterns: r.IncludePatterns,
	}
}

// MethodInfo describes one research method for the research form.
type MethodInfo struct {
	Method    entity.MethodKind `json:"method"`
	Label     string            `json:"label"`
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
}

// ResearchList wraps stored result summaries.
type ResearchList struct {
	Results []entity.ResearchSummary `json:"results"`
	Limit   int                      `json:"limit"`
}
