package scraper

import (
	"net/url"
	"strings"
)

var contactPaths = map[string][]string{
	"de": {"/impressum", "/kontakt", "/ueber-uns", "/team", "/ansprechpartner", "/mitarbeiter", "/unternehmen", "/de/kontakt", "/de/impressum"},
	"en": {"/contact", "/contact-us", "/imprint", "/legal-notice", "/about", "/about-us", "/team", "/people", "/leadership", "/management", "/staff", "/directory", "/en/contact"},
	"fr": {"/nous-contacter", "/contact", "/mentions-legales", "/equipe", "/a-propos", "/fr/contact"},
	"es": {"/contacto", "/aviso-legal", "/equipo", "/sobre-nosotros", "/es/contacto"},
	"":   {"/company", "/corporate", "/office", "/locations"},
}

// contactKeywords match hrefs and anchor texts worth following.
var contactKeywords = []string{
	"kontakt", "impressum", "contact", "imprint", "legal", "about", "team", "ueber-uns", "über uns",
	"ansprechpartner", "mitarbeiter", "people", "leadership", "management", "staff",
	"nous-contacter", "mentions", "equipe", "équipe", "a-propos", "contacto", "aviso-legal", "equipo",
	"sobre-nosotros",
}

// legalPageKeywords identify pages that by law or convention name the
// responsible contacts of a company.
var legalPageKeywords = []string{"impressum", "imprint", "kontakt", "contact", "legal", "mentions", "aviso", "contacto"}

var countryLanguages = map[string]string{
	"germany": "de", "deutschland": "de", "de": "de", "austria": "de", "österreich": "de", "at": "de",
	"switzerland": "de", "schweiz": "de", "ch": "de", "liechtenstein": "de",
	"france": "fr", "fr": "fr", "belgium": "fr", "luxembourg": "fr",
	"spain": "es", "españa": "es", "es": "es", "mexico": "es", "méxico": "es", "argentina": "es", "colombia": "es", "chile": "es",
}

// LanguageFor returns the site language most likely used in country, "en" by default.
func LanguageFor(country string) string {
	if lang, ok := countryLanguages[strings.ToLower(strings.TrimSpace(country))]; ok {
		return lang
	}
	return "en"
}

// CandidateURLs lists the seed followed by contact paths, the country's
// language first. Duplicates are removed.
func CandidateURLs(seed *url.URL, country string) []string {
	first := LanguageFor(country)
	order := []string{first}
	for _, lang := range []string{"de", "en", "fr", "es", ""} {
		if lang != first {
			order = append(order, lang)
		}
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	add(seed.String())
	for _, lang := range order {
		for _, p := range contactPaths[lang] {
			ref := &url.URL{Path: p}
			add(seed.ResolveReference(ref).String())
		}
	}
	return out
}

// IsContactLink reports whether an href or its anchor text looks like a contact page.
func IsContactLink(href, text string) bool {
	h := strings.ToLower(href)
	t := strings.ToLower(text)
	for _, kw := range contactKeywords {
		if strings.Contains(h, kw) || strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// IsLegalPage reports whether the URL path is an Impressum/contact style page.
func IsLegalPage(u *url.URL) bool {
	p := strings.ToLower(u.Path)
	for _, kw := range legalPageKeywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

// SameSite compares hosts ignoring a leading "www.".
func SameSite(a, b *url.URL) bool {
	return strings.TrimPrefix(strings.ToLower(a.Hostname()), "www.") == strings.TrimPrefix(strings.ToLower(b.Hostname()), "www.")
}
