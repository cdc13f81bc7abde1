package scraper

import (
	"bytes"
	"net/http"
	"strings"
)

// Detector reports whether a page is a bot-protection challenge and which
// vendor served it.
type Detector func(p *Page) (bool, string)

// DefaultDetectors covers the protection vendors most often seen on company sites.
func DefaultDetectors() []Detector {
	return []Detector{detectCloudflare, detectAkamai, detectDataDome, detectPerimeterX}
}

// DetectBlock runs the detectors in order and returns the first vendor hit.
func DetectBlock(p *Page, detectors []Detector) (bool, string) {
	if p == nil {
		return false, ""
	}
	for _, d := range detectors {
		if blocked, vendor := d(p); blocked {
			return true, vendor
		}
	}
	return false, ""
}

func detectCloudflare(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	for _, sig := range []string{"cf-browser-verification", "cf-turnstile", "Attention Required! | Cloudflare", "cloudflare-nginx"} {
		if bytes.Contains(p.Body, []byte(sig)) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "akamai") {
		return true, "Akamai"
	}
	if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header.Get("X-DataDome") != "" || p.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	for _, sig := range []string{"client.perimeterx.net", "px-captcha", "_pxBlock"} {
		if bytes.Contains(p.Body, []byte(sig)) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
