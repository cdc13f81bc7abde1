package service

import (
	"strings"
	"unicode"

	"github.com/octobees/contact-finder/internal/entity"
)

type categoryKeywords struct {
	category entity.Category
	words    []string
}

// categoryTable is checked in order; the first matching category wins.
// General/Support comes last so departments take precedence.
var categoryTable = []categoryKeywords{
	{entity.CategoryExecutive, []string{
		"ceo", "cfo", "cto", "coo", "chief", "founder", "co-founder", "gründer", "owner", "inhaber",
		"president", "präsident", "presidente", "director", "directeur", "directrice", "managing director",
		"geschäftsführer", "geschäftsführerin", "geschaeftsfuehrer", "geschäftsführung", "geschaeftsleitung",
		"geschäftsleitung", "vorstand", "board", "chairman", "pdg", "gérant", "gerente", "manager",
		"leadership", "executive", "management",
	}},
	{entity.CategorySales, []string{
		"sales", "vertrieb", "verkauf", "business", "commercial", "comercial", "ventas", "vente", "ventes",
		"account manager", "key account", "bestellung", "order", "orders", "angebot", "quote",
	}},
	{entity.CategoryHR, []string{
		"hr", "human resources", "personal", "personalabteilung", "bewerbung", "karriere", "career",
		"careers", "jobs", "job", "recruiting", "recruitment", "talent", "rrhh", "recursos humanos",
		"ressources humaines", "emploi", "empleo",
	}},
	{entity.CategoryTechnical, []string{
		"tech", "technical", "technik", "it", "dev", "developer", "admin", "webmaster", "hostmaster",
		"engineering", "entwicklung", "security", "noc", "sysadmin",
	}},
	{entity.CategoryMarketing, []string{
		"marketing", "promotion", "pr", "media", "presse", "press", "prensa", "communication",
		"communications", "kommunikation", "comunicación", "brand", "events", "spokesperson", "pressesprecher",
	}},
	{entity.CategoryFinance, []string{
		"finance", "finanzen", "accounting", "billing", "invoice", "invoices", "buchhaltung", "buchhal",
		"rechnung", "rechnungen", "accounts", "comptabilité", "comptabilite", "facturation",
		"contabilidad", "facturación", "payments", "steuer",
	}},
	{entity.CategoryGeneral, []string{
		"info", "contact", "kontakt", "office", "hello", "hallo", "mail", "support", "help", "service",
		"kunde", "kunden", "kundenservice", "customer", "contacto", "bonjour", "hola", "general",
		"empfang", "reception", "zentrale", "anfrage", "enquiries", "inquiries", "verwaltung",
	}},
}

// Categorize assigns a category to a contact value from the role text, the
// email local part and the surrounding text, in that order. Emails shaped
// like first.last fall back to Personal, everything else to General/Support.
func Categorize(kind entity.ContactKind, value, role, context string) entity.Category {
	if c, ok := matchText(role, true); ok {
		return c
	}
	if kind == entity.KindEmail {
		local := value
		if at := strings.LastIndex(value, "@"); at >= 0 {
			local = value[:at]
		}
		local = strings.ToLower(local)
		if c, ok := matchLocalPart(local); ok {
			return c
		}
		if c, ok := matchText(context, false); ok {
			return c
		}
		if isPersonalLocal(local) {
			return entity.CategoryPersonal
		}
		return entity.CategoryGeneral
	}
	if c, ok := matchText(context, false); ok {
		return c
	}
	return entity.CategoryGeneral
}

// matchText looks for keywords as whole words of text. Multi-word keywords
// match as phrases. withGeneral controls whether General/Support keywords
// count; surrounding page text mentions "Kontakt" too often for them to
// mean anything.
func matchText(text string, withGeneral bool) (entity.Category, bool) {
	words := tokenize(text)
	if len(words) == 0 {
		return "", false
	}
	joined := " " + strings.Join(words, " ") + " "
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	for _, entry := range categoryTable {
		if entry.category == entity.CategoryGeneral && !withGeneral {
			continue
		}
		for _, kw := range entry.words {
			if strings.ContainsAny(kw, " -") {
				if strings.Contains(joined, " "+strings.Join(tokenize(kw), " ")+" ") {
					return entry.category, true
				}
				continue
			}
			if _, ok := set[kw]; ok {
				return entry.category, true
			}
		}
	}
	return "", false
}

// matchLocalPart matches short keywords ("hr", "it", "pr") only as whole
// tokens of the local part and longer ones anywhere inside a token, so that
// "salesteam" is Sales while "kitchen" is not Technical.
func matchLocalPart(local string) (entity.Category, bool) {
	tokens := tokenize(local)
	for _, entry := range categoryTable {
		for _, kw := range entry.words {
			if strings.ContainsAny(kw, " -") {
				continue
			}
			for _, tok := range tokens {
				if len([]rune(kw)) <= 3 {
					if tok == kw {
						return entry.category, true
					}
					continue
				}
				if strings.Contains(tok, kw) {
					return entry.category, true
				}
			}
		}
	}
	return "", false
}

// isPersonalLocal reports whether local looks like first.last, f.last or
// first_last.
func isPersonalLocal(local string) bool {
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' || r == '-' })
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
