package sources

import (
	"fmt"

	"github.com/bcampbell/regomat/normalize"
	"github.com/bcampbell/regomat/record"
)

// CASC covers community amateur sports clubs registered with HMRC, in
// the 360Giving-processed form. The feed carries two row shapes: club
// rows, and company-number crosswalk rows (spotted by the casc_orgid
// column) which come out as links.
func CASC() *Spec {
	src := record.Source{
		Identifier:  "casc",
		Title:       "Community amateur sports clubs (CASCs) registered with HMRC",
		Description: "Check which sports clubs are registered with HMRC as community amateur sports clubs. Processed by 360Giving",
		License:     "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/3/",
		LicenseName: "Open Government Licence v3.0",
		Modified:    now(),
		Publisher: record.Publisher{
			Name:    "HMRC",
			Website: "https://www.gov.uk/government/organisations/hm-revenue-customs",
		},
		Distribution: []record.Distribution{
			{
				DownloadURL: "https://raw.githubusercontent.com/ThreeSixtyGiving/cascs/master/cascs.csv",
				AccessURL:   "https://www.gov.uk/government/publications/community-amateur-sports-clubs-casc-registered-with-hmrc--2",
				Title:       "Government organisations on GOV.UK register",
			},
		},
	}

	transform := func(row map[string]string) ([]record.Record, error) {
		row = cleanRow(row)
		if _, ok := row["casc_orgid"]; ok {
			link := &record.Link{
				OrganisationIDA: row["casc_orgid"],
				OrganisationIDB: row["ch_orgid"],
				Source:          src.Identifier,
			}
			if link.PrimaryKey() == "" {
				return nil, fmt.Errorf("casc crosswalk row missing an org id")
			}
			return []record.Record{link}, nil
		}

		id := row["id"]
		if id == "" {
			return nil, fmt.Errorf("casc row has no id")
		}

		address, _ := normalize.SplitAddress(row["address"], 3, ",", false)

		org := &record.Organisation{
			ID:                      id,
			Name:                    row["name"],
			StreetAddress:           address[0],
			AddressLocality:         address[1],
			AddressRegion:           address[2],
			PostalCode:              normalize.Postcode(row["postcode"]),
			OrganisationType:        []string{"Community Amateur Sports Club", "Sports Club"},
			OrganisationTypePrimary: "Community Amateur Sports Club",
			DateModified:            now(),
			Active:                  true,
			OrgIDs:                  []string{id},
			Source:                  src.Identifier,
		}
		return []record.Record{org}, nil
	}

	return &Spec{Name: "casc", Source: src, Transform: transform}
}
