package sources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bcampbell/regomat/normalize"
	"github.com/bcampbell/regomat/record"
)

// CCNI is the Charity Commission for Northern Ireland register.
// extraNames maps a registration number to known alternate names from
// the supplementary names list (see ExtraNames); pass nil if not
// loaded.
func CCNI(extraNames map[string][]string) *Spec {
	src := record.Source{
		Identifier:  "ccni",
		Title:       "Charity Commission for Northern Ireland charity search",
		License:     "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/3/",
		LicenseName: "Open Government Licence v3.0",
		Modified:    now(),
		Publisher: record.Publisher{
			Name:    "Charity Commission for Northern Ireland",
			Website: "https://www.education-ni.gov.uk/",
		},
		Distribution: []record.Distribution{
			{
				DownloadURL: "http://www.charitycommissionni.org.uk/charity-search/?q=&include=Linked&include=Removed&exportCSV=1",
				AccessURL:   "http://www.charitycommissionni.org.uk/charity-search/",
				Title:       "Charity Commission for Northern Ireland charity search",
			},
		},
	}

	transform := func(row map[string]string) ([]record.Record, error) {
		row = cleanRow(row)

		regno := row["Reg charity number"]
		if regno == "" {
			return nil, fmt.Errorf("ccni row has no charity number")
		}
		id := orgID("GB-NIC", regno)

		address, postcode := normalize.SplitAddress(row["Public address"], 3, ", ", true)

		orgTypes := []string{
			"Registered Charity",
			"Registered Charity (Northern Ireland)",
		}
		orgIDs := []string{id}
		coyno := niCompanyNumber(row["Company number"])
		if coyno != "" {
			orgTypes = append(orgTypes, "Registered Company")
			orgIDs = append(orgIDs, orgID("GB-COH", coyno))
		}

		org := &record.Organisation{
			ID:               id,
			Name:             strings.ReplaceAll(row["Charity name"], "`", "'"),
			CharityNumber:    "NI" + regno,
			CompanyNumber:    coyno,
			StreetAddress:    address[0],
			AddressLocality:  address[1],
			AddressRegion:    address[2],
			AddressCountry:   "Northern Ireland",
			PostalCode:       postcode,
			Telephone:        row["Telephone"],
			Email:            row["Email"],
			AlternateName:    extraNames[regno],
			OrganisationType: orgTypes,
			URL:              normalize.RepairURL(row["Website"]),
			LatestIncome:     parseIncome(row["Total income"]),
			DateModified:     now(),
			DateRegistered:   normalize.CleanDate(row["Date registered"], "02/01/2006"),
			Active:           row["Status"] != "Removed",
			OrgIDs:           orgIDs,
			Source:           src.Identifier,
		}
		return []record.Record{org}, nil
	}

	return &Spec{Name: "ccni", Source: src, Transform: transform}
}

// niCompanyNumber converts an NI register company number field into a
// Companies House number. All-digit values get the NI prefix and
// zero-padding to six digits; 0 and 999999 are "no company" sentinels.
func niCompanyNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// not a plain number, pass through untouched
		return raw
	}
	if n == 0 || n == 999999 {
		return ""
	}
	for len(raw) < 6 {
		raw = "0" + raw
	}
	return "NI" + raw
}

// ExtraNames builds the regno -> alternate-names lookup from the
// supplementary ccni_extra CSV.
func ExtraNames(rows []map[string]string) map[string][]string {
	out := map[string][]string{}
	for _, row := range rows {
		regno := strings.TrimSpace(row["Charity_number"])
		name := strings.TrimSpace(row["Other_names"])
		if regno == "" || name == "" {
			continue
		}
		out[regno] = append(out[regno], name)
	}
	return out
}
