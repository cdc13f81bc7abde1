package service

import (
	"strings"

	"github.com/octobees/contact-finder/internal/adapter/scraper"
)

type patternGroup struct {
	name   string
	locals []string
}

var basePatterns = []patternGroup{
	{"Standard Business", []string{"info", "contact", "hello", "office", "mail", "admin"}},
	{"Executive", []string{"ceo", "president", "director", "manager", "leadership"}},
	{"Departments", []string{"sales", "marketing", "hr", "support", "finance", "operations"}},
}

var germanPatterns = patternGroup{
	"German Business", []string{"kontakt", "personal", "bewerbung", "geschaeftsleitung", "verwaltung", "vertrieb"},
}

var industryPatterns = []struct {
	keywords []string
	group    patternGroup
}{
	{[]string{"education", "school", "university", "bildung"}, patternGroup{"Education", []string{"admissions", "registrar", "faculty", "academic", "students"}}},
	{[]string{"tech", "technology", "software"}, patternGroup{"Technology", []string{"dev", "tech", "engineering", "product", "api"}}},
	{[]string{"healthcare", "medical", "hospital"}, patternGroup{"Healthcare", []string{"appointments", "patients", "medical", "clinic"}}},
}

// EmailPatterns suggests common role addresses for domain, grouped by theme.
// German-speaking countries and a few industries get extra groups. The
// suggestions are unverified guesses and are never mixed into contacts.
func EmailPatterns(domain, country, industry string) map[string][]string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	if domain == "" {
		return nil
	}
	groups := append([]patternGroup(nil), basePatterns...)
	if scraper.LanguageFor(country) == "de" {
		groups = append(groups, germanPatterns)
	}
	if industry = strings.ToLower(industry); industry != "" {
	industries:
		for _, ip := range industryPatterns {
			for _, kw := range ip.keywords {
				if strings.Contains(industry, kw) {
					groups = append(groups, ip.group)
					break industries
				}
			}
		}
	}

	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		addrs := make([]string, 0, len(g.locals))
		for _, local := range g.locals {
			addrs = append(addrs, local+"@"+domain)
		}
		out[g.name] = addrs
	}
	return out
}
