package airesearch

import (
	"fmt"
	"strings"

	"github.com/octobees/contact-finder/internal/entity"
)

// BuildPrompt renders the research prompt for req. The reply is expected to
// contain a markdown table that ParseReply understands.
func BuildPrompt(req entity.ResearchRequest) string {
	domain := req.Domain()
	if domain == "" {
		domain = "example.com"
	}

	var b strings.Builder
	b.WriteString("You are a professional business research assistant specializing in finding verified contact information.\n\n")
	fmt.Fprintf(&b, "**RESEARCH TARGET**: %s\n", req.CompanyName)
	fmt.Fprintf(&b, "**WEBSITE**: %s\n", req.Website)
	if req.Country != "" {
		fmt.Fprintf(&b, "**LOCATION**: %s\n", req.Country)
	}
	if req.Industry != "" {
		fmt.Fprintf(&b, "**INDUSTRY**: %s\n", req.Industry)
	}
	b.WriteString(`
**OBJECTIVE**: Find current, verified contact information for key personnel, executives, and general business contacts.

**SEARCH STRATEGY**:
1. **Official Company Sources**: Website contact pages, about sections, team directories, impressum (German companies)
2. **Professional Networks**: LinkedIn profiles, Xing profiles (German), business directories
3. **Business Intelligence**: Press releases, news articles, company announcements
4. **Public Records**: Business registrations, chamber of commerce listings
5. **Industry Sources**: Trade publications, conference speakers, industry directories

**OUTPUT FORMAT**:
Return a markdown table with these columns:
| Name | Role | Email | Phone | LinkedIn/Xing URL | Source | Confidence |

**GUIDELINES**:
- Focus on current employees and decision-makers
- Include general contact information (info@, contact@, sales@)
- Mark estimated emails as "(estimated)"
- Provide confidence levels: High/Medium/Low
- For German companies, check impressum pages (legally required)

**EXAMPLE OUTPUT**:
| Name | Role | Email | Phone | LinkedIn/Xing URL | Source | Confidence |
|------|------|-------|-------|-------------------|--------|------------|
`)
	fmt.Fprintf(&b, "| John Smith | CEO | j.smith@%s | +1-555-0123 | linkedin.com/in/johnsmith | Company Website | High |\n", domain)
	fmt.Fprintf(&b, "| | General Contact | info@%s | +1-555-0100 | | Website Contact Page | High |\n", domain)
	fmt.Fprintf(&b, "| Jane Doe | HR Director | hr@%s | | xing.com/profile/janedoe | Business Directory | Medium |\n", domain)
	b.WriteString(`
**VERIFICATION**: Cross-reference multiple sources when possible.

**SOURCES**: List all sources used with URLs as markdown links.

`)
	fmt.Fprintf(&b, "Begin comprehensive research for %s now.\n", req.CompanyName)
	return b.String()
}
