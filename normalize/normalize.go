// Package normalize holds the field-level cleanup functions shared by all
// the register scrapers. Everything in here is pure - no I/O, no state.
package normalize

import (
	"regexp"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]+`)

// Postcode tidies up a raw UK postcode into "OUTWARD INWARD" form
// (eg "ab1  2cd" => "AB1 2CD").
// Returns "" for empty input. Codes longer than 7 characters are assumed
// to be non-standard (eg overseas) and passed through as-is.
func Postcode(raw string) string {
	pc := strings.ToUpper(strings.TrimSpace(raw))
	if pc == "" {
		return ""
	}
	pc = nonAlnum.ReplaceAllString(pc, "")
	if pc == "" {
		return ""
	}
	if len(pc) > 7 {
		return pc
	}
	if len(pc) <= 3 {
		// not enough for an outward+inward split
		return pc
	}
	outward := pc[:len(pc)-3]
	inward := pc[len(pc)-3:]
	// common transcription error - letter O instead of zero at the start
	// of the inward code (which always begins with a digit)
	if inward[0] == 'O' {
		inward = "0" + inward[1:]
	}
	return outward + " " + inward
}

var (
	allDigits  = regexp.MustCompile(`^[0-9]+$`)
	bracketNum = regexp.MustCompile(`\([0-9]+\)`)
)

// CompanyNumber tidies up a Companies House number. Purely-numeric
// numbers are left-padded with zeros to 8 digits (Companies House
// convention). Anything else (eg "SC123456", "RC000123") is passed
// through untouched.
func CompanyNumber(raw string) string {
	coyno := strings.TrimSpace(raw)
	if coyno == "" {
		return ""
	}
	if allDigits.MatchString(coyno) {
		for len(coyno) < 8 {
			coyno = "0" + coyno
		}
	}
	return coyno
}

// Slugify converts a name into an identifier-safe slug:
// lowercased, bracketed numbers dropped, runs of non-alphanumerics
// collapsed to single underscores.
func Slugify(raw string) string {
	v := strings.ToLower(raw)
	v = bracketNum.ReplaceAllString(v, "_")
	v = strings.Trim(v, "_")
	v = nonAlnum.ReplaceAllString(v, "_")
	return strings.Trim(v, "_")
}

// SplitAddress breaks a single address string into partCount parts.
// If getPostcode is set and there's more than one segment, the last
// segment is treated as a postcode, normalized and returned separately.
// Overflow segments are folded into the final part.
func SplitAddress(raw string, partCount int, sep string, getPostcode bool) ([]string, string) {
	parts := make([]string, partCount)
	segs := []string{}
	for _, s := range strings.Split(raw, strings.TrimSpace(sep)) {
		s = strings.TrimSpace(s)
		if s != "" {
			segs = append(segs, s)
		}
	}

	postcode := ""
	if getPostcode && len(segs) > 1 {
		postcode = Postcode(segs[len(segs)-1])
		segs = segs[:len(segs)-1]
	}

	if len(segs) > partCount {
		segs = append(segs[:partCount-1], strings.Join(segs[partCount-1:], sep))
	}
	copy(parts, segs)
	return parts, postcode
}

// CleanDate parses a date string against a list of layouts, first match
// wins. Returns the zero time if nothing fits.
func CleanDate(raw string, layouts ...string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
