package airesearch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/extract"
)

var (
	citationRe  = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	urlRe       = regexp.MustCompile(`https?://[^\s|)\]]+`)
	separatorRe = regexp.MustCompile(`^\|?\s*:?-{2,}:?\s*(\|\s*:?-{2,}:?\s*)*\|?$`)
)

// Row is one line of the contact table in an AI reply.
type Row struct {
	Name       string
	Role       string
	Email      string
	Phone      string
	Profile    string
	Source     string
	Confidence string
}

// Citation is a markdown link found anywhere in the reply.
type Citation struct {
	Name string
	URL  string
}

// ParseTable returns the rows of the first markdown table whose header
// names an Email or Name column. Columns are matched by header text so
// reordered tables still parse.
func ParseTable(text string) []Row {
	var (
		rows    []Row
		columns map[string]int
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			if columns != nil && len(rows) > 0 {
				break
			}
			continue
		}
		if separatorRe.MatchString(line) {
			continue
		}
		cells := splitRow(line)
		if columns == nil {
			columns = headerColumns(cells)
			continue
		}
		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(cells) {
				return ""
			}
			return cells[i]
		}
		row := Row{
			Name:       cell("name"),
			Role:       cell("role"),
			Email:      cell("email"),
			Phone:      cell("phone"),
			Profile:    cell("profile"),
			Source:     cell("source"),
			Confidence: cell("confidence"),
		}
		if row == (Row{}) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "*`"))
	}
	return parts
}

// headerColumns maps known column names to indexes, or returns nil when the
// row is not a contact table header.
func headerColumns(cells []string) map[string]int {
	columns := make(map[string]int)
	for i, c := range cells {
		h := strings.ToLower(c)
		switch {
		case strings.Contains(h, "email") || strings.Contains(h, "e-mail"):
			columns["email"] = i
		case strings.Contains(h, "phone") || strings.Contains(h, "telefon"):
			columns["phone"] = i
		case strings.Contains(h, "linkedin") || strings.Contains(h, "xing") || strings.Contains(h, "profile"):
			columns["profile"] = i
		case strings.Contains(h, "role") || strings.Contains(h, "position") || strings.Contains(h, "title"):
			columns["role"] = i
		case strings.Contains(h, "source"):
			columns["source"] = i
		case strings.Contains(h, "confidence"):
			columns["confidence"] = i
		case strings.Contains(h, "name"):
			columns["name"] = i
		}
	}
	_, hasEmail := columns["email"]
	_, hasName := columns["name"]
	if !hasEmail && !hasName {
		return nil
	}
	return columns
}

// Citations returns the markdown links in text in order of appearance.
func Citations(text string) []Citation {
	var out []Citation
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		out = append(out, Citation{Name: m[1], URL: m[2]})
	}
	return out
}

// ParseReply converts an AI reply into raw contacts. Estimated emails are
// dropped and the reported confidence is kept as a hint.
func ParseReply(text, fallbackSource string) []entity.RawContact {
	citations := Citations(text)
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

	for _, row := range ParseTable(text) {
		name := cleanName(row.Name)
		source := sourceURL(row.Source, citations, fallbackSource)
		hint, _ := entity.ParseConfidence(firstWord(row.Confidence))
		if hint > entity.ConfidenceMedium {
			hint = entity.ConfidenceMedium
		}
		context := strings.Join(nonEmpty(row.Role, row.Source, row.Profile), "; ")

		base := entity.RawContact{
			SourceMethod:   entity.MethodAIAssistant,
			SourceURL:      source,
			RawContext:     context,
			Name:           name,
			Role:           row.Role,
			ProfileURL:     profileURL(row.Profile),
			ConfidenceHint: hint,
		}

		found := false
		if !strings.Contains(strings.ToLower(row.Email), "estimated") {
			for _, email := range extract.Emails(row.Email) {
				rc := base
				rc.Value, rc.Kind = email, entity.KindEmail
				emit(rc)
				found = true
			}
		}
		for _, phone := range extract.Phones(row.Phone) {
			rc := base
			rc.Value, rc.Kind = phone, entity.KindPhone
			emit(rc)
			found = true
		}
		if !found && name != "" {
			rc := base
			rc.Value, rc.Kind = name, entity.KindName
			emit(rc)
		}
	}
	return out
}

func sourceURL(cell string, citations []Citation, fallback string) string {
	if m := citationRe.FindStringSubmatch(cell); m != nil {
		return m[2]
	}
	if u := urlRe.FindString(cell); u != "" {
		return strings.TrimRight(u, ".,;")
	}
	label := strings.ToLower(strings.TrimSpace(cell))
	if label != "" {
		for _, c := range citations {
			name := strings.ToLower(c.Name)
			if strings.Contains(name, label) || strings.Contains(label, name) {
				return c.URL
			}
		}
	}
	return fallback
}

// profileURL turns the LinkedIn/Xing cell into an absolute URL. Replies often
// drop the scheme ("xing.com/profile/max").
func profileURL(cell string) string {
	if m := citationRe.FindStringSubmatch(cell); m != nil {
		return m[2]
	}
	if u := urlRe.FindString(cell); u != "" {
		return strings.TrimRight(u, ".,;")
	}
	fields := strings.Fields(cell)
	if len(fields) == 0 {
		return ""
	}
	candidate := strings.TrimRight(fields[0], ".,;")
	u, err := url.Parse("https://" + candidate)
	if err != nil || !strings.Contains(u.Host, ".") || u.Path == "" {
		return ""
	}
	return u.String()
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "-", "n/a", "na", "unknown", "—":
		return ""
	}
	return name
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && v != "-" {
			out = append(out, v)
		}
	}
	return out
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '(' || r == ',' || r == '/'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
