package normalize

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostcode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ab1 2cd", "AB1 2CD"},
		{"AB1 2CD", "AB1 2CD"},
		{" ec1y  8lx ", "EC1Y 8LX"},
		{"b301qz", "B30 1QZ"},
		{"SW1A-1AA", "SW1A 1AA"},
		{"", ""},
		{"   ", ""},
		// letter O transcribed for zero at the start of the inward code
		{"YO1 ODP", "YO1 0DP"},
		// non-standard (too long) codes pass through unsplit
		{"GIR0AA12345", "GIR0AA12345"},
		// too short to split
		{"M1", "M1"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Postcode(tc.in), "Postcode(%q)", tc.in)
	}
}

func TestPostcodeIdempotent(t *testing.T) {
	pat := regexp.MustCompile(`^[A-Z0-9]{2,4} [A-Z0-9]{3}$`)
	for _, pc := range []string{"AB1 2CD", "ec1y 8lx", "n1 9gu", "SW1A 1AA", "b30 1qz"} {
		once := Postcode(pc)
		assert.Equal(t, once, Postcode(once), "not idempotent for %q", pc)
		assert.Regexp(t, pat, once)
	}
}

func TestCompanyNumber(t *testing.T) {
	assert.Equal(t, "00000123", CompanyNumber("123"))
	assert.Equal(t, "AB1234", CompanyNumber("AB1234"))
	assert.Equal(t, "", CompanyNumber(""))
	assert.Equal(t, "", CompanyNumber("   "))
	assert.Equal(t, "01234567", CompanyNumber(" 1234567 "))
	assert.Equal(t, "12345678", CompanyNumber("12345678"))
	assert.Equal(t, "SC045677", CompanyNumber("SC045677"))
}

func TestRepairURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.org", "http://example.org"},
		{"https://example.org/foo", "https://example.org/foo"},
		{"example.org", "http://example.org"},
		{"www.example.org", "http://www.example.org"},
		{"http;//example.org", "http://example.org"},
		{"www,example.org", "http://www.example.org"},
		{"www.example..org", "http://www.example.org"},
		{"www,example,com", "http://www.example.com"},
		{"not a url", ""},
		{"n/a", ""},
		{"N/A", ""},
		{"tbc", ""},
		{"-", ""},
		{"", ""},
		{"no website", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RepairURL(tc.in), "RepairURL(%q)", tc.in)
	}
}

func TestTitleCaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ST MARY'S CHURCH", "St Mary's Church"},
		{"THE UNIVERSITY OF OXFORD", "The University of Oxford"},
		{"FRIENDS OF THE NHS", "Friends of the NHS"},
		{"1ST KIRKWALL SCOUT GROUP", "1st Kirkwall Scout Group"},
		{"BBC SYMPHONY CHORUS", "BBC Symphony Chorus"},
		{"YMCA BIRMINGHAM", "YMCA Birmingham"},
		// names with lowercase letters pass through untouched (bar the
		// initial capital)
		{"already Cased Name", "Already Cased Name"},
		{"the Wibble Trust", "The Wibble Trust"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TitleCaseName(tc.in), "TitleCaseName(%q)", tc.in)
	}
}

func TestSplitAddress(t *testing.T) {
	parts, pc := SplitAddress("1 Main Street, Anytown, Anyshire, AB1 2CD", 3, ", ", true)
	assert.Equal(t, []string{"1 Main Street", "Anytown", "Anyshire"}, parts)
	assert.Equal(t, "AB1 2CD", pc)

	// overflow folds into the last part
	parts, pc = SplitAddress("The Old Mill, 1 Main Street, Anytown, Anyshire, AB1 2CD", 3, ", ", true)
	assert.Equal(t, []string{"The Old Mill", "1 Main Street", "Anytown, Anyshire"}, parts)
	assert.Equal(t, "AB1 2CD", pc)

	// short addresses leave trailing parts empty
	parts, pc = SplitAddress("Anytown", 3, ", ", true)
	assert.Equal(t, []string{"Anytown", "", ""}, parts)
	assert.Equal(t, "", pc)

	// postcode extraction disabled
	parts, pc = SplitAddress("1 Main Street, Anytown, Anyshire", 3, ", ", false)
	assert.Equal(t, []string{"1 Main Street", "Anytown", "Anyshire"}, parts)
	assert.Equal(t, "", pc)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bristol_city_council", Slugify("Bristol City Council"))
	assert.Equal(t, "some_name", Slugify("Some (1) Name"))
	assert.Equal(t, "a_b_c", Slugify("  a--b__c  "))
	assert.Equal(t, "", Slugify("---"))
}

func TestCleanDate(t *testing.T) {
	got := CleanDate("01/04/2019 12:30", "02/01/2006 15:04", "02/01/2006")
	assert.Equal(t, time.Date(2019, 4, 1, 12, 30, 0, 0, time.UTC), got)

	got = CleanDate("2019-04-01", "2006-01-02")
	assert.Equal(t, time.Date(2019, 4, 1, 0, 0, 0, 0, time.UTC), got)

	assert.True(t, CleanDate("not a date", "2006-01-02").IsZero())
	assert.True(t, CleanDate("", "2006-01-02").IsZero())
}
