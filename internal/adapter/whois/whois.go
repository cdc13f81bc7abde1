// Package whois implements the WHOIS research method.
package whois

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	likewhois "github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/extract"
)

// Client performs raw WHOIS queries. *likewhois.Client satisfies it.
type Client interface {
	Whois(domain string, servers ...string) (string, error)
}

// Config is passed explicitly by the caller.
type Config struct {
	Client  Client
	Timeout time.Duration
	Logger  *zap.Logger
}

// Adapter looks up the registrant, admin, tech and billing contacts of the
// company domain.
type Adapter struct {
	client Client
	logger *zap.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

// New builds the WHOIS adapter; a nil client uses likexian/whois.
func New(cfg Config) *Adapter {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = likewhois.NewClient().SetTimeout(timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, logger: logger.Named("whois")}
}

func (a *Adapter) Kind() entity.MethodKind { return entity.MethodWhoisLookup }

func (a *Adapter) Available(entity.ResearchRequest) error { return nil }

// Discover queries WHOIS for the registrable domain of req.Website.
func (a *Adapter) Discover(ctx context.Context, req entity.ResearchRequest) ([]entity.RawContact, error) {
	host := req.Domain()
	if host == "" {
		return nil, adapter.NewError(a.Kind(), adapter.KindUnavailable, errors.New("website has no host"))
	}
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		a.logger.Debug("skipping whois for non-domain host", zap.String("host", host))
		return nil, nil
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}

	raw, err := a.lookup(ctx, domain)
	if err != nil {
		return nil, err
	}

	info, err := whoisparser.Parse(raw)
	switch {
	case errors.Is(err, whoisparser.ErrDomainLimitExceed):
		return nil, adapter.NewError(a.Kind(), adapter.KindRateLimited, err)
	case errors.Is(err, whoisparser.ErrNotFoundDomain):
		return nil, nil
	case err != nil:
		a.logger.Debug("whois record not parsable, scanning raw text", zap.String("domain", domain), zap.Error(err))
		return fromRawText(raw, domain), nil
	}
	return fromRecord(info, domain), nil
}

func (a *Adapter) lookup(ctx context.Context, domain string) (string, error) {
	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := a.client.Whois(domain)
		ch <- reply{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", adapter.Classify(a.Kind(), ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return "", adapter.Classify(a.Kind(), fmt.Errorf("whois %s: %w", domain, r.err))
		}
		return r.raw, nil
	}
}

type roleContact struct {
	role    string
	contact *whoisparser.Contact
}

func fromRecord(info whoisparser.WhoisInfo, domain string) []entity.RawContact {
	source := "whois:" + domain
	var registrar, created string
	if info.Registrar != nil {
		registrar = info.Registrar.Name
	}
	if info.Domain != nil {
		created = info.Domain.CreatedDate
	}

	var out []entity.RawContact
	seen := make(map[string]struct{})
	emit := func(rc entity.RawContact) {
		key := string(rc.Kind) + ":" + strings.ToLower(rc.Value)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, rc)
	}

	for _, rc := range []roleContact{
		{"Domain registrant", info.Registrant},
		{"Administrative contact", info.Administrative},
		{"Technical contact", info.Technical},
		{"Billing contact", info.Billing},
	} {
		c := rc.contact
		if c == nil {
			continue
		}
		context := describe(rc.role, c.Organization, registrar, created)
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email != "" && !extract.IsPrivacyEmail(email) && extract.IsUsableEmail(email) {
			emit(entity.RawContact{
				Value:        email,
				Kind:         entity.KindEmail,
				SourceMethod: entity.MethodWhoisLookup,
				SourceURL:    source,
				RawContext:   context,
				Name:         usableName(c.Name),
				Role:         rc.role,
			})
		}
		if phone := strings.TrimSpace(c.Phone); phone != "" && !isRedacted(phone) && !isRedacted(c.Organization) {
			emit(entity.RawContact{
				Value:        phone,
				Kind:         entity.KindPhone,
				SourceMethod: entity.MethodWhoisLookup,
				SourceURL:    source,
				RawContext:   context,
				Role:         rc.role,
			})
		}
	}
	return out
}

func fromRawText(raw, domain string) []entity.RawContact {
	var out []entity.RawContact
	for _, email := range extract.Emails(raw) {
		if extract.IsPrivacyEmail(email) {
			continue
		}
		out = append(out, entity.RawContact{
			Value:        email,
			Kind:         entity.KindEmail,
			SourceMethod: entity.MethodWhoisLookup,
			SourceURL:    "whois:" + domain,
			RawContext:   extract.Snippet(raw, email, 60),
		})
	}
	return out
}

func describe(role, org, registrar, created string) string {
	parts := []string{role}
	if org != "" && !isRedacted(org) {
		parts = append(parts, "organization: "+org)
	}
	if registrar != "" {
		parts = append(parts, "registrar: "+registrar)
	}
	if created != "" {
		parts = append(parts, "created: "+created)
	}
	return strings.Join(parts, "; ")
}

func usableName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || isRedacted(name) {
		return ""
	}
	return name
}

func isRedacted(value string) bool {
	v := strings.ToLower(value)
	for _, marker := range []string{"redacted", "privacy", "withheld", "proxy", "not disclosed", "data protected"} {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}
