package record

import (
	"fmt"
	"time"
)

// nilable turns the zero time into nil so missing dates show up as null
// in indexed documents rather than 0001-01-01.
func nilable(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// ToDocument projects a record into a keyed document for the search
// index and the document store: a collection name, the document id, and
// a body with the key field removed. Records without a derivable key
// return an error and must be skipped by the caller.
func ToDocument(r Record) (collection string, id string, body map[string]interface{}, err error) {
	id = r.PrimaryKey()
	if id == "" {
		return "", "", nil, fmt.Errorf("no id for %s record", r.Kind())
	}
	collection = string(r.Kind())

	switch rec := r.(type) {
	case *Organisation:
		body = map[string]interface{}{
			"name":                    rec.Name,
			"charityNumber":           rec.CharityNumber,
			"companyNumber":           rec.CompanyNumber,
			"streetAddress":           rec.StreetAddress,
			"addressLocality":         rec.AddressLocality,
			"addressRegion":           rec.AddressRegion,
			"addressCountry":          rec.AddressCountry,
			"postalCode":              rec.PostalCode,
			"telephone":               rec.Telephone,
			"email":                   rec.Email,
			"description":             rec.Description,
			"url":                     rec.URL,
			"alternateName":           rec.AlternateName,
			"organisationType":        rec.OrganisationType,
			"organisationTypePrimary": rec.OrganisationTypePrimary,
			"latestIncome":            rec.LatestIncome,
			"latestIncomeDate":        nilable(rec.LatestIncomeDate),
			"dateModified":            nilable(rec.DateModified),
			"dateRegistered":          nilable(rec.DateRegistered),
			"dateRemoved":             nilable(rec.DateRemoved),
			"active":                  rec.Active,
			"parent":                  rec.Parent,
			"location":                rec.Location,
			"orgIDs":                  rec.OrgIDs,
			"source":                  rec.Source,
			"complete_names":          rec.CompleteNames(),
		}
	case *Source:
		body = map[string]interface{}{
			"title":        rec.Title,
			"description":  rec.Description,
			"license":      rec.License,
			"license_name": rec.LicenseName,
			"issued":       nilable(rec.Issued),
			"modified":     nilable(rec.Modified),
			"publisher":    rec.Publisher,
			"distribution": rec.Distribution,
		}
	case *Link:
		body = map[string]interface{}{
			"organisation_id_a": rec.OrganisationIDA,
			"organisation_id_b": rec.OrganisationIDB,
			"description":       rec.Description,
			"source":            rec.Source,
		}
	default:
		return "", "", nil, fmt.Errorf("unknown record kind %s", r.Kind())
	}
	return collection, id, body, nil
}
