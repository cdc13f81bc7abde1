package whois_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/contact-finder/internal/adapter"
	"github.com/octobees/contact-finder/internal/adapter/whois"
	"github.com/octobees/contact-finder/internal/entity"
)

const comRecord = `Domain Name: ACME-EXAMPLE.COM
Registry Domain ID: 123456_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.example-registrar.com
Registrar URL: http://www.example-registrar.com
Updated Date: 2024-01-01T00:00:00Z
Creation Date: 2010-05-04T00:00:00Z
Registrar Registration Expiration Date: 2030-05-04T00:00:00Z
Registrar: Example Registrar, Inc.
Registrar IANA ID: 9999
Registrar Abuse Contact Email: abuse@example-registrar.com
Registrar Abuse Contact Phone: +1.5555555555
Domain Status: clientTransferProhibited
Registrant Name: Jane Roe
Registrant Organization: Acme Corp
Registrant Street: 1 Main St
Registrant City: Springfield
Registrant Country: US
Registrant Phone: +1.5551234567
Registrant Email: jane.roe@acme-example.com
Admin Name: REDACTED FOR PRIVACY
Admin Organization: REDACTED FOR PRIVACY
Admin Phone: REDACTED FOR PRIVACY
Admin Email: privacy@withheldforprivacy.com
Tech Name: Hostmaster
Tech Organization: Acme Corp
Tech Email: hostmaster@acme-example.com
Name Server: NS1.ACME-EXAMPLE.COM
DNSSEC: unsigned
`

type stubClient struct {
	raw     string
	err     error
	delay   time.Duration
	queried []string
}

func (s *stubClient) Whois(domain string, _ ...string) (string, error) {
	s.queried = append(s.queried, domain)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.raw, s.err
}

func TestDiscoverReturnsRegistrantContacts(t *testing.T) {
	t.Parallel()

	client := &stubClient{raw: comRecord}
	got, err := whois.New(whois.Config{Client: client}).Discover(context.Background(), entity.ResearchRequest{
		CompanyName: "Acme",
		Website:     "https://shop.acme-example.com/de",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-example.com"}, client.queried)

	values := make(map[string]entity.RawContact)
	for _, c := range got {
		assert.Equal(t, entity.MethodWhoisLookup, c.SourceMethod)
		values[c.Value] = c
	}
	assert.Contains(t, values, "jane.roe@acme-example.com")
	assert.Contains(t, values, "hostmaster@acme-example.com")
	assert.NotContains(t, values, "privacy@withheldforprivacy.com")
	assert.NotContains(t, values, "abuse@example-registrar.com")
	assert.Equal(t, "whois:acme-example.com", values["jane.roe@acme-example.com"].SourceURL)
}

func TestDiscoverUnknownDomainIsEmpty(t *testing.T) {
	t.Parallel()

	client := &stubClient{raw: "No match for domain \"NOPE-EXAMPLE.COM\".\n"}
	got, err := whois.New(whois.Config{Client: client}).Discover(context.Background(), entity.ResearchRequest{
		Website: "nope-example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscoverSkipsIPHosts(t *testing.T) {
	t.Parallel()

	client := &stubClient{raw: comRecord}
	got, err := whois.New(whois.Config{Client: client}).Discover(context.Background(), entity.ResearchRequest{
		Website: "http://192.0.2.10/",
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, client.queried)
}

func TestDiscoverClassifiesLookupFailure(t *testing.T) {
	t.Parallel()

	client := &stubClient{err: errors.New("whois: connect to whois server failed: i/o timeout")}
	_, err := whois.New(whois.Config{Client: client}).Discover(context.Background(), entity.ResearchRequest{
		Website: "acme-example.com",
	})
	require.Error(t, err)
	assert.Equal(t, adapter.KindTimeout, adapter.KindOf(err))
}

func TestDiscoverHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := &stubClient{raw: comRecord, delay: 500 * time.Millisecond}
	start := time.Now()
	_, err := whois.New(whois.Config{Client: client}).Discover(ctx, entity.ResearchRequest{Website: "acme-example.com"})
	require.Error(t, err)
	assert.Equal(t, adapter.KindTimeout, adapter.KindOf(err))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}
