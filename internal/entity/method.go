package entity

import (
	"fmt"
	"strings"
)

// MethodKind identifies one research method adapter.
type MethodKind string

const (
	MethodWebsiteScraping MethodKind = "website_scraping"
	MethodWhoisLookup     MethodKind = "whois_lookup"
	MethodWebSearch       MethodKind = "web_search"
	MethodAIAssistant     MethodKind = "ai_assistant"
)

// AllMethods lists every method in priority order. The order is used for
// display and to break ties when several methods report the same contact.
var AllMethods = []MethodKind{
	MethodWebsiteScraping,
	MethodWhoisLookup,
	MethodWebSearch,
	MethodAIAssistant,
}

// Label returns the human readable method name used in exports.
func (m MethodKind) Label() string {
	switch m {
	case MethodWebsiteScraping:
		return "Website Scraping"
	case MethodWhoisLookup:
		return "WHOIS Lookup"
	case MethodWebSearch:
		return "Web Search"
	case MethodAIAssistant:
		return "AI Assistant"
	default:
		return string(m)
	}
}

// Priority returns the position of the method in AllMethods; lower wins.
func (m MethodKind) Priority() int {
	for i, kind := range AllMethods {
		if kind == m {
			return i
		}
	}
	return len(AllMethods)
}

// ParseMethodKind accepts the canonical name as well as the labels shown in the form.
func ParseMethodKind(raw string) (MethodKind, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "website_scraping", "scraping", "website":
		return MethodWebsiteScraping, nil
	case "whois_lookup", "whois":
		return MethodWhoisLookup, nil
	case "web_search", "search":
		return MethodWebSearch, nil
	case "ai_assistant", "ai", "ai_research":
		return MethodAIAssistant, nil
	default:
		return "", fmt.Errorf("unknown research method %q", raw)
	}
}

// SearchDepth controls how much effort adapters spend per request.
type SearchDepth string

const (
	DepthStandard      SearchDepth = "standard"
	DepthDeep          SearchDepth = "deep"
	DepthComprehensive SearchDepth = "comprehensive"
)

// ParseSearchDepth maps user input to a SearchDepth; empty input yields DepthDeep.
func ParseSearchDepth(raw string) (SearchDepth, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return DepthDeep, nil
	case "standard":
		return DepthStandard, nil
	case "deep":
		return DepthDeep, nil
	case "comprehensive":
		return DepthComprehensive, nil
	default:
		return "", fmt.Errorf("unknown search depth %q", raw)
	}
}
