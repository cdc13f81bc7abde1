package airesearch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/contact-finder/internal/adapter/airesearch"
	"github.com/octobees/contact-finder/internal/entity"
)

const reply = `Here is what I found for Acme GmbH.

| Name | Role | Email | Phone | LinkedIn/Xing URL | Source | Confidence |
|------|------|-------|-------|-------------------|--------|------------|
| Max Mustermann | Geschäftsführer | max.mustermann@acme.de | +49 30 1234567-0 | xing.com/profile/max | [Impressum](https://www.acme.de/impressum) | High |
| | General Contact | info@acme.de | | | Website Contact Page | High |
| Erika Muster | Head of Sales | e.muster@acme.de (estimated) | | linkedin.com/in/erika | Business Directory | Medium |
| **Jan Beispiel** | CTO | | | | Handelsregister | low |

**Sources**
- [Website Contact Page](https://www.acme.de/kontakt)
- [Business Directory](https://directory.example.org/acme)
`

func TestParseTable(t *testing.T) {
	t.Parallel()

	rows := airesearch.ParseTable(reply)
	require.Len(t, rows, 4)
	assert.Equal(t, "Max Mustermann", rows[0].Name)
	assert.Equal(t, "Geschäftsführer", rows[0].Role)
	assert.Equal(t, "info@acme.de", rows[1].Email)
	assert.Equal(t, "Jan Beispiel", rows[3].Name)
}

func TestParseTableReorderedColumns(t *testing.T) {
	t.Parallel()

	rows := airesearch.ParseTable("| Email | Name |\n|---|---|\n| sales@acme.de | Vertrieb |\n")
	require.Len(t, rows, 1)
	assert.Equal(t, "sales@acme.de", rows[0].Email)
	assert.Equal(t, "Vertrieb", rows[0].Name)
}

func TestParseReply(t *testing.T) {
	t.Parallel()

	got := airesearch.ParseReply(reply, "ai:openai/gpt-4o-mini")

	byValue := make(map[string]entity.RawContact)
	for _, c := range got {
		assert.Equal(t, entity.MethodAIAssistant, c.SourceMethod)
		byValue[c.Value] = c
	}

	ceo, ok := byValue["max.mustermann@acme.de"]
	require.True(t, ok)
	assert.Equal(t, "Max Mustermann", ceo.Name)
	assert.Equal(t, "Geschäftsführer", ceo.Role)
	assert.Equal(t, "https://www.acme.de/impressum", ceo.SourceURL)
	assert.Equal(t, entity.ConfidenceMedium, ceo.ConfidenceHint, "AI confidence is capped")
	assert.Equal(t, "https://xing.com/profile/max", ceo.ProfileURL)

	assert.Contains(t, byValue, "+49 30 1234567-0")

	info, ok := byValue["info@acme.de"]
	require.True(t, ok)
	assert.Equal(t, "https://www.acme.de/kontakt", info.SourceURL, "source resolved through citations")

	assert.NotContains(t, byValue, "e.muster@acme.de", "estimated emails are dropped")
	erika, ok := byValue["Erika Muster"]
	require.True(t, ok, "a row without usable email keeps the name")
	assert.Equal(t, entity.KindName, erika.Kind)
	assert.Equal(t, "https://linkedin.com/in/erika", erika.ProfileURL)
	assert.Empty(t, byValue["info@acme.de"].ProfileURL)

	jan, ok := byValue["Jan Beispiel"]
	require.True(t, ok)
	assert.Equal(t, entity.ConfidenceLow, jan.ConfidenceHint)
	assert.Equal(t, "ai:openai/gpt-4o-mini", jan.SourceURL)
}

func TestParseReplyWithoutTable(t *testing.T) {
	t.Parallel()

	assert.Empty(t, airesearch.ParseReply("I could not find any verified contacts.", "ai:x"))
}

func TestCitations(t *testing.T) {
	t.Parallel()

	got := airesearch.Citations(reply)
	require.Len(t, got, 3)
	assert.Equal(t, airesearch.Citation{Name: "Impressum", URL: "https://www.acme.de/impressum"}, got[0])
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := airesearch.BuildPrompt(entity.ResearchRequest{
		CompanyName: "Acme GmbH",
		Website:     "https://www.acme.de",
		Country:     "Germany",
		Industry:    "Manufacturing",
	})
	assert.Contains(t, prompt, "**RESEARCH TARGET**: Acme GmbH")
	assert.Contains(t, prompt, "**INDUSTRY**: Manufacturing")
	assert.Contains(t, prompt, "| Name | Role | Email | Phone | LinkedIn/Xing URL | Source | Confidence |")
	assert.Contains(t, prompt, "info@acme.de")
	assert.Contains(t, prompt, "impressum")
}
