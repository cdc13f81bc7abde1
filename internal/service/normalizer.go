package service

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/extract"
)

// Normalizer turns raw adapter output into de-duplicated, categorized and
// scored contacts.
type Normalizer struct {
	validator *ContactValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewNormalizer builds a Normalizer around validator.
func NewNormalizer(validator *ContactValidator, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{validator: validator, logger: logger, now: time.Now}
}

// candidate accumulates everything known about one normalized value.
type candidate struct {
	contact entity.Contact
	best    entity.Confidence
	bestPri int
	methods map[entity.MethodKind]entity.Confidence
	order   int
}

// Normalize validates, merges and scores raws for req. raws must already be
// in adapter priority order, discovery order within an adapter; the result
// keeps the order in which values were first seen.
func (n *Normalizer) Normalize(ctx context.Context, req entity.ResearchRequest, raws []entity.RawContact) []entity.Contact {
	companyDomain := req.Domain()
	region := n.validator.RegionFor(req.Country)
	seenAt := n.now().UTC()

	byKey := make(map[string]*candidate)
	var dropped int

	for _, raw := range raws {
		value, key, ok := n.normalizeValue(raw, region)
		if !ok {
			dropped++
			continue
		}

		conf := sourceConfidence(raw, value, companyDomain)
		category := Categorize(raw.Kind, value, raw.Role, raw.RawContext)
		priority := raw.SourceMethod.Priority()

		c, exists := byKey[key]
		if !exists {
			c = &candidate{
				contact: entity.Contact{
					Value:       value,
					Kind:        raw.Kind,
					Category:    category,
					FirstSeenAt: seenAt,
				},
				best:    conf,
				bestPri: priority,
				methods: make(map[entity.MethodKind]entity.Confidence),
				order:   len(byKey),
			}
			byKey[key] = c
		} else if conf > c.best || (conf == c.best && priority < c.bestPri) {
			c.contact.Category = category
			c.best = conf
			c.bestPri = priority
		}

		if prev, ok := c.methods[raw.SourceMethod]; !ok || conf > prev {
			c.methods[raw.SourceMethod] = conf
		}
		if c.contact.Name == "" {
			c.contact.Name = strings.TrimSpace(raw.Name)
		}
		if c.contact.Role == "" {
			c.contact.Role = strings.TrimSpace(raw.Role)
		}
		if c.contact.ProfileURL == "" && raw.ProfileURL != "" {
			c.contact.ProfileURL = CleanSourceURL(raw.ProfileURL)
		}
		if src := CleanSourceURL(raw.SourceURL); src != "" && !slices.Contains(c.contact.SourceURLs, src) {
			c.contact.SourceURLs = append(c.contact.SourceURLs, src)
		}
	}

	out := make([]entity.Contact, len(byKey))
	for _, c := range byKey {
		contact := c.contact
		for _, m := range entity.AllMethods {
			if _, ok := c.methods[m]; ok {
				contact.Sources = append(contact.Sources, m)
			}
		}
		contact.Confidence = combineConfidence(c.methods)
		if contact.Kind == entity.KindEmail && !n.validator.Deliverable(ctx, contact.Value) {
			contact.Confidence = entity.ConfidenceLow
		}
		out[c.order] = contact
	}

	if dropped > 0 {
		n.logger.Debug("dropped invalid contact values", zap.Int("count", dropped))
	}
	return out
}

// normalizeValue returns the display value and the de-duplication key.
func (n *Normalizer) normalizeValue(raw entity.RawContact, region string) (string, string, bool) {
	switch raw.Kind {
	case entity.KindEmail:
		email, ok := n.validator.NormalizeEmail(raw.Value)
		return email, "email:" + email, ok
	case entity.KindPhone:
		phone := n.validator.NormalizePhone(raw.Value, region)
		return phone, "phone:" + phone, phone != ""
	case entity.KindName:
		name := strings.Join(strings.Fields(raw.Value), " ")
		if name == "" {
			return "", "", false
		}
		return name, "name:" + strings.ToLower(name), true
	}
	return "", "", false
}

// sourceConfidence scores a single sighting of value.
func sourceConfidence(raw entity.RawContact, value, companyDomain string) entity.Confidence {
	onDomain := false
	switch raw.Kind {
	case entity.KindEmail:
		onDomain = sameDomain(extract.Domain(value), companyDomain)
	default:
		onDomain = sameDomain(sourceHost(raw.SourceURL), companyDomain)
	}

	switch raw.SourceMethod {
	case entity.MethodWebsiteScraping:
		if raw.Kind == entity.KindEmail && onDomain {
			return entity.ConfidenceHigh
		}
		if raw.ConfidenceHint != entity.ConfidenceUnknown {
			return raw.ConfidenceHint
		}
		return entity.ConfidenceMedium
	case entity.MethodWhoisLookup:
		if raw.Kind == entity.KindEmail && onDomain {
			return entity.ConfidenceHigh
		}
		return entity.ConfidenceMedium
	case entity.MethodWebSearch:
		if onDomain {
			return entity.ConfidenceMedium
		}
		return entity.ConfidenceLow
	case entity.MethodAIAssistant:
		hint := raw.ConfidenceHint
		if hint == entity.ConfidenceUnknown {
			return entity.ConfidenceLow
		}
		return min(hint, entity.ConfidenceMedium)
	}
	return entity.ConfidenceLow
}

// combineConfidence takes the strongest per-method score and raises it one
// level for each additional method that reported the value.
func combineConfidence(methods map[entity.MethodKind]entity.Confidence) entity.Confidence {
	var best entity.Confidence
	for _, c := range methods {
		best = max(best, c)
	}
	for i := 1; i < len(methods); i++ {
		best = best.Raise()
	}
	return best
}

func sameDomain(host, companyDomain string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if host == "" || companyDomain == "" {
		return false
	}
	return host == companyDomain || strings.HasSuffix(host, "."+companyDomain) || strings.HasSuffix(companyDomain, "."+host)
}

func sourceHost(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
