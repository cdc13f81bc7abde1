package entity

import (
	"fmt"
	"strings"
	"time"
)

// ContactKind describes what a contact value holds.
type ContactKind string

const (
	KindEmail ContactKind = "email"
	KindPhone ContactKind = "phone"
	KindName  ContactKind = "name"
)

// Category groups contacts by the role they most likely serve.
type Category string

const (
	CategoryExecutive Category = "Executive"
	CategorySales     Category = "Sales"
	CategoryGeneral   Category = "General/Support"
	CategoryHR        Category = "HR"
	CategoryTechnical Category = "Technical"
	CategoryMarketing Category = "Marketing"
	CategoryFinance   Category = "Finance"
	CategoryPersonal  Category = "Personal"
)

// Confidence is an ordered trust level attached to a contact.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "Low"
	case ConfidenceMedium:
		return "Medium"
	case ConfidenceHigh:
		return "High"
	default:
		return ""
	}
}

// Raise returns the next level up, capped at High.
func (c Confidence) Raise() Confidence {
	if c >= ConfidenceHigh {
		return ConfidenceHigh
	}
	return c + 1
}

// ParseConfidence reads "High", "medium", "LOW" and friends.
func ParseConfidence(raw string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return ConfidenceHigh, nil
	case "medium", "med":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	case "":
		return ConfidenceUnknown, nil
	default:
		return ConfidenceUnknown, fmt.Errorf("unknown confidence %q", raw)
	}
}

// MarshalText encodes the confidence by name.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a confidence name.
func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RawContact is an unvalidated candidate emitted by a research method adapter.
type RawContact struct {
	Value          string      `json:"value"`
	Kind           ContactKind `json:"kind"`
	SourceMethod   MethodKind  `json:"source_method"`
	SourceURL      string      `json:"source_url,omitempty"`
	RawContext     string      `json:"raw_context,omitempty"`
	Name           string      `json:"name,omitempty"`
	Role           string      `json:"role,omitempty"`
	ProfileURL     string      `json:"profile_url,omitempty"`
	ConfidenceHint Confidence  `json:"confidence_hint,omitempty"`
}

// Contact is a validated, categorized and de-duplicated finding.
type Contact struct {
	Value       string       `json:"value"`
	Kind        ContactKind  `json:"kind"`
	Category    Category     `json:"category"`
	Confidence  Confidence   `json:"confidence"`
	Sources     []MethodKind `json:"sources"`
	SourceURLs  []string     `json:"source_urls,omitempty"`
	Name        string       `json:"name,omitempty"`
	Role        string       `json:"role,omitempty"`
	ProfileURL  string       `json:"profile_url,omitempty"`
	FirstSeenAt time.Time    `json:"first_seen_at"`
}

// HasSource reports whether the contact was attributed to the given method.
func (c Contact) HasSource(method MethodKind) bool {
	for _, src := range c.Sources {
		if src == method {
			return true
		}
	}
	return false
}

// SourceLabels joins the human readable names of the attributed methods.
func (c Contact) SourceLabels(sep string) string {
	labels := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		labels = append(labels, src.Label())
	}
	return strings.Join(labels, sep)
}
