package scraper

import (
	"bytes"
	"encoding/json"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/octobees/contact-finder/internal/entity"
	"github.com/octobees/contact-finder/internal/extract"
)

const snippetRadius = 60

var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "svg": {}, "iframe": {},
}

var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "ul": {}, "ol": {}, "tr": {}, "td": {}, "th": {},
	"table": {}, "section": {}, "article": {}, "header": {}, "footer": {}, "nav": {}, "aside": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "address": {}, "dd": {}, "dt": {},
	"main": {}, "form": {}, "blockquote": {},
}

// Finding is a contact value found on a page with the text surrounding it.
type Finding struct {
	Value   string
	Kind    entity.ContactKind
	Context string
}

// ParsedPage holds what a single HTML document yielded.
type ParsedPage struct {
	Findings []Finding
	Links    []*url.URL
}

// ParsePage extracts mailto/tel links, JSON-LD contact points, visible-text
// emails and phones, and same-site links that look like contact pages.
func ParsePage(page *Page) (*ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, err
	}

	text := visibleText(doc)
	out := &ParsedPage{}
	seen := make(map[string]struct{})
	add := func(value string, kind entity.ContactKind, context string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		key := string(kind) + ":" + strings.ToLower(value)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if context == "" {
			context = extract.Snippet(text, value, snippetRadius)
		}
		if context == "" && kind == entity.KindEmail {
			// obfuscated addresses only appear in the text by their local part
			context = extract.Snippet(text, value[:strings.IndexByte(value, '@')], snippetRadius)
		}
		out.Findings = append(out.Findings, Finding{Value: value, Kind: kind, Context: context})
	}

	doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := href[len("mailto:"):]
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if decoded, err := url.PathUnescape(addr); err == nil {
			addr = decoded
		}
		for _, part := range strings.Split(addr, ",") {
			for _, email := range extract.Emails(part) {
				add(email, entity.KindEmail, anchorContext(s, text, email))
			}
		}
	})

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		number := strings.TrimSpace(href[len("tel:"):])
		if decoded, err := url.PathUnescape(number); err == nil {
			number = decoded
		}
		add(number, entity.KindPhone, anchorContext(s, text, strings.TrimSpace(s.Text())))
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		walkJSONLD(payload, "", func(key, value, context string) {
			switch key {
			case "email":
				for _, email := range extract.Emails(strings.TrimPrefix(value, "mailto:")) {
					add(email, entity.KindEmail, context)
				}
			case "telephone":
				add(value, entity.KindPhone, context)
			}
		})
	})

	for _, email := range extract.Emails(text) {
		add(email, entity.KindEmail, "")
	}
	for _, phone := range extract.Phones(text) {
		add(phone, entity.KindPhone, "")
	}

	linkSeen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !IsContactLink(href, s.Text()) {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		target := page.URL.ResolveReference(ref)
		if target.Scheme != "http" && target.Scheme != "https" {
			return
		}
		if !SameSite(target, page.URL) {
			return
		}
		target.Fragment = ""
		if _, dup := linkSeen[target.String()]; dup {
			return
		}
		linkSeen[target.String()] = struct{}{}
		out.Links = append(out.Links, target)
	})

	return out, nil
}

// visibleText renders the document body as text, keeping block boundaries as
// line breaks so adjacent elements do not run into each other.
func visibleText(doc *goquery.Document) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if _, skip := skippedTags[n.Data]; skip {
				return
			}
		}
		_, block := blockTags[n.Data]
		if block && n.Type == html.ElementNode {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block && n.Type == html.ElementNode {
			b.WriteByte('\n')
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return b.String()
}

func anchorContext(s *goquery.Selection, text, needle string) string {
	if snippet := extract.Snippet(text, needle, snippetRadius); snippet != "" {
		return snippet
	}
	return strings.Join(strings.Fields(s.Parent().Text()), " ")
}

// walkJSONLD visits string values of the keys we care about anywhere in a
// JSON-LD document. context carries the nearest "name"/"jobTitle" seen on the
// way down so contactPoint entries keep their role ("customer service", …).
func walkJSONLD(node any, context string, visit func(key, value, context string)) {
	switch v := node.(type) {
	case map[string]any:
		local := context
		for _, k := range []string{"contactType", "jobTitle", "name", "department"} {
			if s, ok := v[k].(string); ok && s != "" {
				local = strings.TrimSpace(local + " " + s)
			}
		}
		for _, key := range slices.Sorted(maps.Keys(v)) {
			child := v[key]
			lk := strings.ToLower(key)
			switch c := child.(type) {
			case string:
				if lk == "email" || lk == "telephone" {
					visit(lk, c, local)
				}
			case []any:
				for _, item := range c {
					if s, ok := item.(string); ok && (lk == "email" || lk == "telephone") {
						visit(lk, s, local)
						continue
					}
					walkJSONLD(item, local, visit)
				}
			default:
				walkJSONLD(child, local, visit)
			}
		}
	case []any:
		for _, item := range v {
			walkJSONLD(item, context, visit)
		}
	}
}
