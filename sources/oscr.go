package sources

import (
	"fmt"
	"strings"

	"github.com/bcampbell/regomat/normalize"
	"github.com/bcampbell/regomat/record"
)

// OSCR is the Scottish charity register. dualRegistered maps a Scottish
// charity number to any England & Wales charity numbers the same body
// holds (see DualRegistered); pass nil if that data isn't loaded.
func OSCR(dualRegistered map[string][]string) *Spec {
	src := record.Source{
		Identifier:  "oscr",
		Title:       "Office of Scottish Charity Regulator Charity Register Download",
		License:     "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/2/",
		LicenseName: "Open Government Licence v2.0",
		Modified:    now(),
		Publisher: record.Publisher{
			Name:    "Office of Scottish Charity Regulator",
			Website: "https://www.oscr.org.uk/",
		},
		Distribution: []record.Distribution{
			{
				DownloadURL: "https://www.oscr.org.uk/about-charities/search-the-register/charity-register-download",
				AccessURL:   "https://www.oscr.org.uk/about-charities/search-the-register/charity-register-download",
				Title:       "Office of Scottish Charity Regulator Charity Register Download",
			},
		},
	}

	transform := func(row map[string]string) ([]record.Record, error) {
		row = cleanRow(row)

		regno := row["Charity Number"]
		if regno == "" {
			return nil, fmt.Errorf("oscr row has no charity number")
		}
		id := orgID("GB-SC", regno)

		address, _ := normalize.SplitAddress(row["Principal Office/Trustees Address"], 3, ", ", false)

		orgTypes := []string{
			"Registered Charity",
			"Registered Charity (Scotland)",
		}
		if v := row["Regulatory Type"]; v != "" && v != "Standard" {
			orgTypes = append(orgTypes, v)
		}
		if row["Designated religious body"] == "Yes" {
			orgTypes = append(orgTypes, "Designated religious body")
		}
		if v := row["Constitutional Form"]; v != "" && v != "Other" {
			orgTypes = append(orgTypes, v)
		}

		orgIDs := []string{id}
		for _, ew := range dualRegistered[regno] {
			orgIDs = append(orgIDs, orgID("GB-CHC", ew))
		}

		var altNames []string
		if known := row["Known As"]; known != "" {
			altNames = []string{known}
		}

		org := &record.Organisation{
			ID:               id,
			Name:             row["Charity Name"],
			CharityNumber:    regno,
			StreetAddress:    address[0],
			AddressLocality:  address[1],
			AddressRegion:    address[2],
			AddressCountry:   "Scotland",
			PostalCode:       normalize.Postcode(row["Postcode"]),
			AlternateName:    altNames,
			Description:      row["Objectives"],
			OrganisationType: orgTypes,
			URL:              normalize.RepairURL(row["Website"]),
			LatestIncome:     parseIncome(row["Most recent year income"]),
			DateModified:     now(),
			DateRegistered:   normalize.CleanDate(row["Registered Date"], "02/01/2006 15:04"),
			Active:           row["Charity Status"] != "Removed",
			Parent:           row["Parent Charity Name"],
			OrgIDs:           orgIDs,
			Source:           src.Identifier,
		}
		return []record.Record{org}, nil
	}

	return &Spec{Name: "oscr", Source: src, Transform: transform}
}

// DualRegistered builds the Scottish-number -> E&W-numbers lookup from
// the dual-registered-uk-charities CSV.
func DualRegistered(rows []map[string]string) map[string][]string {
	out := map[string][]string{}
	for _, row := range rows {
		regno := strings.TrimSpace(row["Scottish Charity Number"])
		ew := strings.TrimSpace(row["E&W Charity Number"])
		if regno == "" || ew == "" {
			continue
		}
		out[regno] = append(out[regno], ew)
	}
	return out
}
