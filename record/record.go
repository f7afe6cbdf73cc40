// Package record defines the canonical record types all the register
// scrapers normalize into - Organisation, Source and Link - plus their
// projections into the various storage backends.
package record

// Kind tags the closed set of canonical record types. Destinations
// dispatch on this rather than poking at concrete types.
type Kind string

const (
	KindOrganisation Kind = "organisation"
	KindSource       Kind = "source"
	KindLink         Kind = "link"
)

// Record is implemented by the canonical types. Kind returns the type
// tag, PrimaryKey the record's natural key ("" if the record has none
// and can't be stored).
type Record interface {
	Kind() Kind
	PrimaryKey() string
}

// Row is one relational row, column name => value.
type Row map[string]interface{}

// Tables is a set of relational rows grouped by destination table.
type Tables map[string][]Row
