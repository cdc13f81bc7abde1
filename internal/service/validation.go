package service

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/contact-finder/internal/extract"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "DE"
	mxLookupTimeout    = 3 * time.Second
)

// countryRegions maps country names as typed in the form to CLDR regions.
var countryRegions = map[string]string{
	"germany": "DE", "deutschland": "DE",
	"austria": "AT", "österreich": "AT", "oesterreich": "AT",
	"switzerland": "CH", "schweiz": "CH", "suisse": "CH",
	"liechtenstein": "LI", "luxembourg": "LU",
	"france": "FR", "belgium": "BE", "belgique": "BE",
	"netherlands": "NL", "nederland": "NL",
	"spain": "ES", "españa": "ES", "espana": "ES",
	"mexico": "MX", "méxico": "MX", "argentina": "AR", "colombia": "CO", "chile": "CL",
	"italy": "IT", "italia": "IT", "poland": "PL", "polska": "PL",
	"united kingdom": "GB", "uk": "GB", "great britain": "GB", "england": "GB",
	"ireland": "IE", "united states": "US", "usa": "US", "us": "US", "canada": "CA",
	"australia": "AU", "india": "IN", "indonesia": "ID", "singapore": "SG",
}

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// ContactValidator holds the syntax, deliverability and phone rules applied
// to raw contact values.
type ContactValidator struct {
	DefaultRegion string
	VerifyMX      bool
	dnsResolver   DNSResolver

	mu      sync.Mutex
	mxCache map[string]bool
}

// ValidatorOption configures optional dependencies.
type ValidatorOption func(*ContactValidator)

// WithDNSResolver overrides the default DNS resolver.
func WithDNSResolver(resolver DNSResolver) ValidatorOption {
	return func(v *ContactValidator) {
		v.dnsResolver = resolver
	}
}

// WithMXVerification enables MX lookups for email domains.
func WithMXVerification(enabled bool) ValidatorOption {
	return func(v *ContactValidator) {
		v.VerifyMX = enabled
	}
}

// NewContactValidator builds a validator with sensible defaults.
func NewContactValidator(defaultRegion string, opts ...ValidatorOption) *ContactValidator {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	v := &ContactValidator{
		DefaultRegion: region,
		dnsResolver:   systemDNSResolver{},
		mxCache:       make(map[string]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NormalizeEmail lower-cases and validates an address. It returns false for
// malformed, placeholder and no-reply addresses.
func (v *ContactValidator) NormalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "mailto:")))
	if email == "" {
		return "", false
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "", false
	}
	domain, err := idnaProfile.ToASCII(email[at+1:])
	if err != nil || domain == "" || !isDomainValid(domain) {
		return "", false
	}
	email = email[:at+1] + domain
	if !emailPattern.MatchString(email) || !extract.IsUsableEmail(email) {
		return "", false
	}
	return email, true
}

// Deliverable reports whether the email domain publishes MX records. It
// always reports true when MX verification is disabled.
func (v *ContactValidator) Deliverable(ctx context.Context, email string) bool {
	if !v.VerifyMX {
		return true
	}
	domain := extract.Domain(email)
	if domain == "" {
		return false
	}
	v.mu.Lock()
	ok, cached := v.mxCache[domain]
	v.mu.Unlock()
	if cached {
		return ok
	}
	ok = v.hasMXRecord(ctx, domain)
	v.mu.Lock()
	v.mxCache[domain] = ok
	v.mu.Unlock()
	return ok
}

// NormalizePhone returns the E.164 form of raw, or "" when it is not a
// valid number for region.
func (v *ContactValidator) NormalizePhone(raw, region string) string {
	if region == "" {
		region = v.DefaultRegion
	}
	return normalizePhone(raw, region)
}

// RegionFor maps a country name or ISO code to a phone region, falling back
// to the default region.
func (v *ContactValidator) RegionFor(country string) string {
	key := strings.ToLower(strings.TrimSpace(country))
	if region, ok := countryRegions[key]; ok {
		return region
	}
	if len(key) == 2 {
		region := strings.ToUpper(key)
		if phonenumbers.GetCountryCodeForRegion(region) != 0 {
			return region
		}
	}
	return v.DefaultRegion
}

// CleanSourceURL strips tracking parameters from http(s) source URLs and
// leaves other source labels ("whois:acme.de") untouched.
func CleanSourceURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw
	}
	u, err := sanitizeURL(raw)
	if err != nil {
		return raw
	}
	stripTracking(u)
	u.Fragment = ""
	return u.String()
}

func (v *ContactValidator) hasMXRecord(ctx context.Context, domain string) bool {
	if v.dnsResolver == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, mxLookupTimeout)
	defer cancel()
	records, err := v.dnsResolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	parts := strings.Split(domain, ".")
	for _, part := range parts {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
