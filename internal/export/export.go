// Package export renders research results for download.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/octobees/contact-finder/internal/entity"
)

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatText}

// ParseFormat accepts the format names used by the API and CLI; empty input
// selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension for f without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

var csvHeader = []string{"value", "category", "confidence", "source", "timestamp"}

// ToCSV writes one row per contact. Multiple sources are joined with "; ".
func ToCSV(result *entity.ResearchResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, c := range result.Contacts {
		row := []string{
			c.Value,
			string(c.Category),
			c.Confidence.String(),
			c.SourceLabels("; "),
			timestamp(c.FirstSeenAt),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSON renders the complete result including per-method metadata.
func ToJSON(result *entity.ResearchResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON parses the output of ToJSON.
func FromJSON(data []byte) (*entity.ResearchResult, error) {
	var result entity.ResearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// ToText writes one contact value per line. Backslashes and control
// characters are escaped so every value stays on its own line.
func ToText(result *entity.ResearchResult) []byte {
	var b strings.Builder
	for _, c := range result.Contacts {
		writeEscaped(&b, c.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func writeEscaped(b *strings.Builder, value string) {
	for _, r := range value {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsControl(r):
			// C0, DEL and C1 are all below 0x100
			fmt.Fprintf(b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
}

// Render serializes result in the requested format.
func Render(result *entity.ResearchResult, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ToCSV(result)
	case FormatJSON:
		return ToJSON(result)
	case FormatText:
		return ToText(result), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds "<company>_contacts_<yyyymmdd_hhmm>.<ext>".
func Filename(companyName string, at time.Time, format Format) string {
	company := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(companyName), "_"), "_")
	if company == "" {
		company = "company"
	}
	return fmt.Sprintf("%s_contacts_%s.%s", company, at.Format("20060102_1504"), format.Extension())
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
