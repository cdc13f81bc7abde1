package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseBatchAppliesDefaults(t *testing.T) {
	doc := []byte(`
defaults:
  methods: [website_scraping, whois_lookup]
  country: Germany
  max_pages: 10
companies:
  - company: Acme GmbH
    website: acme.de
  - company: Globex
    website: https://globex.example
    country: United States
    methods: [web_search]
`)

	file, err := ParseBatch(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Companies) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(file.Companies))
	}
	acme := file.Companies[0]
	if acme.Country != "Germany" || acme.MaxPages != 10 || len(acme.Methods) != 2 {
		t.Fatalf("defaults not applied: %+v", acme)
	}
	globex := file.Companies[1]
	if globex.Country != "United States" || len(globex.Methods) != 1 || globex.Methods[0] != "web_search" {
		t.Fatalf("explicit values overwritten: %+v", globex)
	}
}

func TestParseBatchValidation(t *testing.T) {
	tests := map[string]string{
		"empty":           "companies: []",
		"missing website": "companies:\n  - company: Acme\n",
		"not yaml":        "companies: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseBatch([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.yaml")
	if err := os.WriteFile(path, []byte("companies:\n  - company: Acme\n    website: acme.de\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	file, err := LoadBatchFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Companies[0].CompanyName != "Acme" {
		t.Fatalf("unexpected entry: %+v", file.Companies[0])
	}

	if _, err := LoadBatchFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
