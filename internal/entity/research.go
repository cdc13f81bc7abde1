package entity

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinPages     = 5
	MaxPages     = 30
	DefaultPages = 15
)

// ResearchRequest captures one lookup submitted by the operator.
type ResearchRequest struct {
	CompanyName     string       `json:"company_name"`
	Website         string       `json:"website"`
	Methods         []MethodKind `json:"methods"`
	MaxPages        int          `json:"max_pages"`
	SearchDepth     SearchDepth  `json:"search_depth"`
	Country         string       `json:"country,omitempty"`
	Industry        string       `json:"industry,omitempty"`
	AIProvider      string       `json:"ai_provider,omitempty"`
	AIModel         string       `json:"ai_model,omitempty"`
	IncludePatterns bool         `json:"include_patterns,omitempty"`
}

// Enabled reports whether the method was selected.
func (r ResearchRequest) Enabled(method MethodKind) bool {
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// MethodStatus is the terminal state of one adapter run.
type MethodStatus string

const (
	StatusSucceeded MethodStatus = "succeeded"
	StatusFailed    MethodStatus = "failed"
	StatusSkipped   MethodStatus = "skipped"
	StatusCancelled MethodStatus = "cancelled"
)

// MethodOutcome records how one adapter behaved during a research run.
type MethodOutcome struct {
	Method        MethodKind   `json:"method"`
	Status        MethodStatus `json:"status"`
	ErrorKind     string       `json:"error_kind,omitempty"`
	Error         string       `json:"error,omitempty"`
	Attempts      int          `json:"attempts"`
	ContactsFound int          `json:"contacts_found"`
	StartedAt     time.Time    `json:"started_at,omitempty"`
	FinishedAt    time.Time    `json:"finished_at,omitempty"`
}

// ResearchMetadata describes a run as a whole.
type ResearchMetadata struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Methods    []MethodOutcome `json:"methods"`
	Notices    []string        `json:"notices,omitempty"`
	Cancelled  bool            `json:"cancelled,omitempty"`
}

// Outcome returns the recorded outcome for a method, if any.
func (m ResearchMetadata) Outcome(method MethodKind) (MethodOutcome, bool) {
	for _, o := range m.Methods {
		if o.Method == method {
			return o, true
		}
	}
	return MethodOutcome{}, false
}

// ResearchResult is the aggregated output of one research run.
type ResearchResult struct {
	ID            uuid.UUID           `json:"id"`
	Request       ResearchRequest     `json:"request"`
	Contacts      []Contact           `json:"contacts"`
	Metadata      ResearchMetadata    `json:"metadata"`
	EmailPatterns map[string][]string `json:"email_patterns,omitempty"`
}

// ResearchSummary is the listing view of a stored result.
type ResearchSummary struct {
	ID           uuid.UUID `json:"id"`
	CompanyName  string    `json:"company_name"`
	Website      string    `json:"website"`
	ContactCount int       `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary builds the listing view of the result.
func (r *ResearchResult) Summary() ResearchSummary {
	return ResearchSummary{
		ID:           r.ID,
		CompanyName:  r.Request.CompanyName,
		Website:      r.Request.Website,
		ContactCount: len(r.Contacts),
		CreatedAt:    r.Metadata.StartedAt,
	}
}

var errEmptyHost = errors.New("missing host")

// WebsiteURL turns user input such as "acme.de" into an absolute URL.
func WebsiteURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmptyHost
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Hostname() == "" {
		return nil, errEmptyHost
	}
	u.Fragment = ""
	u.RawQuery = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// Domain returns the registrable-looking host of the website without "www.".
func (r ResearchRequest) Domain() string {
	u, err := WebsiteURL(r.Website)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
