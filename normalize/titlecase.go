package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// words which stay lowercase mid-name
var lowerWords = map[string]bool{
	"a": true, "an": true, "of": true, "the": true, "is": true, "and": true,
}

// acronyms and roman numerals which stay uppercase
var upperWords = map[string]bool{
	"UK": true, "FM": true, "YMCA": true, "PTA": true, "PTFA": true,
	"NHS": true, "CIO": true, "U3A": true, "RAF": true, "PFA": true,
	"ADHD": true,
	"II": true, "III": true, "IV": true, "VI": true, "VII": true,
	"VIII": true, "IX": true, "XI": true, "XII": true,
}

// vowel-less words which are ordinary abbreviations, not acronyms
var plainAbbrevs = map[string]bool{
	"st": true, "mr": true, "mrs": true, "ms": true, "ltd": true,
	"dr": true, "drs": true, "cwm": true, "clwb": true,
}

var contractions = map[string]bool{
	"DON'T": true, "WON'T": true, "YOU'RE": true,
}

var (
	ordinalPat = regexp.MustCompile(`[0-9]+(?:st|nd|rd|th)`)
	vowelPat   = regexp.MustCompile(`[AEIOUYaeiouy]`)
)

// TitleCaseName converts an all-caps (or all-lowercase) organisation name
// to title case, with the various exceptions needed for UK charity names
// ("of" stays lower, "NHS" stays upper, "ST MARY'S" => "St Mary's"...).
// Names which already contain lowercase letters are assumed well-cased
// and left alone, save for uppercasing the first character.
func TitleCaseName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}

	if strings.IndexFunc(name, unicode.IsLower) < 0 {
		words := strings.Fields(name)
		for i, w := range words {
			words[i] = titleWord(w)
		}
		name = strings.Join(words, " ")
	}

	return upperFirst(name)
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// capitalize the first letter, lowercase the rest
func simpleTitle(w string) string {
	if w == "" {
		return w
	}
	return upperFirst(strings.ToLower(w))
}

func titleWord(w string) string {
	test := strings.Trim(w, "(){}<>.")

	if lowerWords[strings.ToLower(test)] {
		return strings.ToLower(w)
	}
	if upperWords[strings.ToUpper(test)] {
		return strings.ToUpper(w)
	}
	if ordinalPat.MatchString(strings.ToLower(test)) {
		return strings.ToLower(w)
	}

	// recurse into words glued together with dots, apostrophes or
	// closing brackets ("ST.MARY'S" etc)
	for _, sep := range []string{".", "'", ")"} {
		bits := strings.Split(w, sep)
		if len(bits) < 2 {
			continue
		}
		// possessive - lowercase the trailing s
		if sep == "'" && strings.ToUpper(bits[len(bits)-1]) == "S" {
			head := make([]string, len(bits)-1)
			for i, b := range bits[:len(bits)-1] {
				head[i] = titleWord(b)
			}
			return strings.Join(head, sep) + "'" + strings.ToLower(bits[len(bits)-1])
		}
		if contractions[strings.ToUpper(test)] {
			return strings.ToLower(w)
		}
		for i, b := range bits {
			bits[i] = titleWord(b)
		}
		return strings.Join(bits, sep)
	}

	// no vowels at all - probably an acronym
	if test != "" && !vowelPat.MatchString(test) && !plainAbbrevs[strings.ToLower(test)] {
		return strings.ToUpper(w)
	}

	return simpleTitle(w)
}
