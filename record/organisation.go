package record

import (
	"fmt"
	"strings"
	"time"
)

// Organisation is a single real-world entity from one of the registers -
// a charity, school, council, university, sports club...
// ID is globally unique, built as "<scheme prefix>-<source-local id>"
// (eg "GB-SC-123456") and stable across re-scrapes.
type Organisation struct {
	ID                      string     `json:"id" bson:"_id"`
	Name                    string     `json:"name" bson:"name"`
	CharityNumber           string     `json:"charityNumber" bson:"charityNumber"`
	CompanyNumber           string     `json:"companyNumber" bson:"companyNumber"`
	StreetAddress           string     `json:"streetAddress" bson:"streetAddress"`
	AddressLocality         string     `json:"addressLocality" bson:"addressLocality"`
	AddressRegion           string     `json:"addressRegion" bson:"addressRegion"`
	AddressCountry          string     `json:"addressCountry" bson:"addressCountry"`
	PostalCode              string     `json:"postalCode" bson:"postalCode"`
	Telephone               string     `json:"telephone" bson:"telephone"`
	Email                   string     `json:"email" bson:"email"`
	Description             string     `json:"description" bson:"description"`
	URL                     string     `json:"url" bson:"url"`
	AlternateName           []string   `json:"alternateName" bson:"alternateName"`
	OrganisationType        []string   `json:"organisationType" bson:"organisationType"`
	OrganisationTypePrimary string     `json:"organisationTypePrimary" bson:"organisationTypePrimary"`
	LatestIncome            *int64     `json:"latestIncome" bson:"latestIncome"`
	LatestIncomeDate        time.Time  `json:"latestIncomeDate" bson:"latestIncomeDate"`
	DateModified            time.Time  `json:"dateModified" bson:"dateModified"`
	DateRegistered          time.Time  `json:"dateRegistered" bson:"dateRegistered"`
	DateRemoved             time.Time  `json:"dateRemoved" bson:"dateRemoved"`
	Active                  bool       `json:"active" bson:"active"`
	Parent                  string     `json:"parent" bson:"parent"`
	Location                []Location `json:"location" bson:"location"`
	OrgIDs                  []string   `json:"orgIDs" bson:"orgIDs"`
	Source                  string     `json:"source" bson:"source"`
}

// Location is a geographical area attached to an organisation, usually
// derived from the postcode of its registered office.
type Location struct {
	ID          string  `json:"id" bson:"id"`
	Name        string  `json:"name" bson:"name"`
	CountryCode string  `json:"countryCode" bson:"countryCode"`
	Latitude    float64 `json:"latitude" bson:"latitude"`
	Longitude   float64 `json:"longitude" bson:"longitude"`
	Description string  `json:"description" bson:"description"`
	GeoCode     string  `json:"geoCode" bson:"geoCode"`
	GeoCodeType string  `json:"geoCodeType" bson:"geoCodeType"`
}

func (o *Organisation) Kind() Kind         { return KindOrganisation }
func (o *Organisation) PrimaryKey() string { return o.ID }

func (o *Organisation) String() string {
	inactive := ""
	if !o.Active {
		inactive = " INACTIVE"
	}
	return fmt.Sprintf(`<Org %s "%s"%s>`, o.ID, o.Name, inactive)
}

// CompleteNames returns every word-suffix of the organisation's names,
// for prefix-autocomplete indexing ("st marys church" yields
// "st marys church", "marys church" and "church").
func (o *Organisation) CompleteNames() []string {
	all := []string{}
	if o.Name != "" {
		all = append(all, o.Name)
	}
	all = append(all, o.AlternateName...)

	seen := map[string]bool{}
	out := []string{}
	for _, n := range all {
		words := strings.Fields(n)
		for i := range words {
			suffix := strings.Join(words[i:], " ")
			if suffix != "" && !seen[suffix] {
				seen[suffix] = true
				out = append(out, suffix)
			}
		}
	}
	return out
}
