// Package extract pulls email addresses and phone numbers out of free text.
//
// The helpers are shared by every research method: scraped pages, WHOIS
// records, search snippets and AI replies all pass through the same filters so
// that placeholder and no-reply addresses never reach the normalizer.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	bracketObfuscatedRe = regexp.MustCompile(`(?i)([a-z0-9._%+\-]+)\s*[\[\(\{<]\s*(?:at|@)\s*[\]\)\}>]\s*([a-z0-9\-]+(?:(?:\s*[\[\(\{<]\s*(?:dot|\.)\s*[\]\)\}>]\s*|\.)[a-z0-9\-]+)+)`)
	spelledObfuscatedRe = regexp.MustCompile(`\b([A-Za-z0-9._%+\-]+)\s+AT\s+([A-Za-z0-9\-]+(?:\s+DOT\s+[A-Za-z0-9\-]+)+)\b`)
	dotSeparatorRe      = regexp.MustCompile(`(?i)\s*(?:[\[\(\{<]\s*(?:dot|\.)\s*[\]\)\}>]|\s+dot\s+|\.)\s*`)

	phoneRe = regexp.MustCompile(`(?:\+|00)?\(?\d[\d\s().\-/]{6,}\d`)
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var excludedDomains = []string{
	"example.com", "example.org", "example.net", "domain.com", "email.com",
	"yourdomain.com", "yourcompany.com", "company.com", "test.com",
	"google.com", "facebook.com", "twitter.com", "instagram.com", "linkedin.com",
	"youtube.com", "sentry.io", "sentry-next.wixpress.com", "wixpress.com",
	"w3.org", "schema.org", "jquery.com", "wordpress.org", "gravatar.com",
}

var fakeMarkers = []string{
	"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon",
	"placeholder", "dummy", "fake", "your-email", "youremail", "yourname",
}

var placeholderLocals = map[string]struct{}{
	"test": {}, "name": {}, "email": {}, "user": {}, "username": {},
}

var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

var privacyMarkers = []string{
	"whoisguard", "privacy", "proxy", "redacted", "protect", "whoisprivacy",
	"contactprivacy", "domainsbyproxy", "withheld", "anonymi",
}

// Emails returns the usable addresses found in text, including obfuscated
// forms such as "kontakt [at] acme [dot] de". Results are lower-cased and
// de-duplicated in order of appearance.
func Emails(text string) []string {
	if text == "" {
		return nil
	}
	var found []string
	seen := make(map[string]struct{})
	add := func(candidate string) {
		email := strings.ToLower(strings.Trim(candidate, ".-_"))
		if !IsUsableEmail(email) {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		found = append(found, email)
	}

	for _, m := range emailRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range deobfuscate(text) {
		add(m)
	}
	return found
}

func deobfuscate(text string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{bracketObfuscatedRe, spelledObfuscatedRe} {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			domain := dotSeparatorRe.ReplaceAllString(groups[2], ".")
			candidate := groups[1] + "@" + domain
			if emailRe.MatchString(candidate) {
				out = append(out, emailRe.FindString(candidate))
			}
		}
	}
	return out
}

// IsUsableEmail filters placeholder, no-reply and asset-like matches.
func IsUsableEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(email, suffix) {
			return false
		}
	}
	for _, excluded := range excludedDomains {
		if domain == excluded || strings.HasSuffix(domain, "."+excluded) {
			return false
		}
	}
	if _, ok := placeholderLocals[email[:at]]; ok {
		return false
	}
	for _, marker := range fakeMarkers {
		if strings.Contains(email, marker) {
			return false
		}
	}
	return true
}

// IsPrivacyEmail reports whether the address belongs to a WHOIS privacy
// service or a registrar rather than the domain owner.
func IsPrivacyEmail(email string) bool {
	email = strings.ToLower(email)
	if strings.Contains(email, "registrar") || strings.HasPrefix(email, "abuse@") {
		return true
	}
	for _, marker := range privacyMarkers {
		if strings.Contains(email, marker) {
			return true
		}
	}
	return false
}

// Phones returns phone-like sequences with a plausible number of digits.
// The values are trimmed but not normalized.
func Phones(text string) []string {
	if text == "" {
		return nil
	}
	var found []string
	seen := make(map[string]struct{})
	for _, m := range phoneRe.FindAllString(text, -1) {
		candidate := strings.TrimSpace(strings.TrimRight(m, "-/. "))
		n := countDigits(candidate)
		if n < minPhoneDigits || n > maxPhoneDigits {
			continue
		}
		key := digitsOnly(candidate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		found = append(found, candidate)
	}
	return found
}

// Snippet returns up to radius runes on each side of the first occurrence of
// needle, with whitespace collapsed. It is used to capture the role text that
// usually sits next to a contact ("Geschäftsführer: …", "Sales: …").
func Snippet(text, needle string, radius int) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if idx < 0 || idx > len(text) {
		return ""
	}
	runes := []rune(text)
	start := len([]rune(text[:idx]))
	end := start + len([]rune(needle))
	from := max(start-radius, 0)
	to := min(end+radius, len(runes))
	return strings.Join(strings.Fields(string(runes[from:to])), " ")
}

// Domain returns the part after the last "@" of an email address.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
