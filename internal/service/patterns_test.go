package service

import (
	"slices"
	"testing"
)

func TestEmailPatterns(t *testing.T) {
	got := EmailPatterns("acme.de", "Germany", "Software development")

	for _, group := range []string{"Standard Business", "Executive", "Departments", "German Business", "Technology"} {
		if _, ok := got[group]; !ok {
			t.Fatalf("expected group %q in %v", group, got)
		}
	}
	if !slices.Contains(got["German Business"], "kontakt@acme.de") {
		t.Fatalf("expected kontakt@acme.de, got %v", got["German Business"])
	}
	if _, ok := got["Healthcare"]; ok {
		t.Fatalf("unexpected industry group")
	}

	plain := EmailPatterns("acme.com", "United States", "")
	if len(plain) != 3 {
		t.Fatalf("expected only the base groups, got %v", plain)
	}
	if EmailPatterns("", "Germany", "") != nil {
		t.Fatalf("expected nil for empty domain")
	}
}
