package normalize

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// placeholder values people put in website fields instead of leaving
// them blank
var notURLs = map[string]bool{
	"":     true,
	"-":    true,
	"n/a":  true,
	"n.a":  true,
	"na":   true,
	"none": true,
	"nil":  true,
	"tbc":  true,
	"tba":  true,
	"not applicable": true,
	"no website":     true,
	"unknown":        true,
}

// common typos seen in the wild, applied in order
var urlFixes = [][2]string{
	{"http;//", "http://"},
	{"https;//", "https://"},
	{"http//", "http://"},
	{"www,", "www."},
	{",com", ".com"},
	{",org", ".org"},
	{",co", ".co"},
	{"..", "."},
}

// RepairURL tries to turn a scraped website field into a valid absolute
// URL, fixing common typos and adding a missing scheme. Returns "" if no
// plausible URL can be recovered.
func RepairURL(raw string) string {
	u := strings.TrimSpace(raw)

	if ok := validURL(u); ok != "" {
		return ok
	}
	if ok := validURL("http://" + u); ok != "" {
		return ok
	}

	if notURLs[strings.ToLower(u)] {
		return ""
	}

	for _, fix := range urlFixes {
		u = strings.ReplaceAll(u, fix[0], fix[1])
	}

	if ok := validURL(u); ok != "" {
		return ok
	}
	if ok := validURL("http://" + u); ok != "" {
		return ok
	}
	return ""
}

// validURL returns the normalized form of u if it looks like a usable
// absolute http(s) URL, else "".
func validURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	host := parsed.Hostname()
	if !strings.Contains(host, ".") {
		return ""
	}
	// url.Parse accepts hosts like "www,example.org" - be stricter so
	// the typo fixes get a chance to run
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return ""
		}
		for _, r := range label {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' {
				continue
			}
			return ""
		}
	}
	out, err := purell.NormalizeURLString(u, purell.FlagsSafe)
	if err != nil {
		return ""
	}
	return out
}
