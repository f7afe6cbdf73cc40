package sources

import (
	"github.com/bcampbell/regomat/record"
)

// ManualLinks returns the specs for the hand-maintained crosswalk CSVs
// in the charity-lookups repository. Each one emits only Link records.
func ManualLinks() []*Spec {
	lookupsPublisher := record.Publisher{
		Name:    "David Kane",
		Website: "https://github.com/drkane/charity-lookups",
	}
	lookupsDist := func(file, title string) record.Distribution {
		return record.Distribution{
			DownloadURL: "https://raw.githubusercontent.com/drkane/charity-lookups/master/" + file,
			AccessURL:   "https://github.com/drkane/charity-lookups/blob/master/" + file,
			Title:       title,
		}
	}

	return []*Spec{
		linkSpec(record.Source{
			Identifier:   "university_charity_numbers",
			Title:        "University Charity Numbers",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("university-charity-number.csv", "University Charity Numbers")},
		}, func(row map[string]string) []record.Link {
			return []record.Link{{
				OrganisationIDA: orgID("GB-HESA", row["HESA ID"]),
				OrganisationIDB: row["OrgID"],
			}}
		}),

		linkSpec(record.Source{
			Identifier:   "dual_registered",
			Title:        "Dual Registered UK Charities",
			Description:  "A list of charities registered in both England & Wales and Scotland",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("dual-registered-uk-charities.csv", "Dual Registered UK Charities")},
		}, func(row map[string]string) []record.Link {
			return []record.Link{{
				OrganisationIDA: orgID("GB-SC", row["Scottish Charity Number"]),
				OrganisationIDB: orgID("GB-CHC", row["E&W Charity Number"]),
			}}
		}),

		linkSpec(record.Source{
			Identifier:   "rsp_charity_company",
			Title:        "Registered housing providers",
			Description:  "A list of charity numbers and company numbers found for registered housing providers",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("rsp-charity-number.csv", "Registered housing providers")},
		}, func(row map[string]string) []record.Link {
			links := []record.Link{}
			if row["Charity Number"] != "" {
				links = append(links, record.Link{
					OrganisationIDA: orgID("GB-SHPE", row["RP Code"]),
					OrganisationIDB: orgID("GB-CHC", row["Charity Number"]),
				})
			}
			if row["Company Number"] != "" {
				links = append(links, record.Link{
					OrganisationIDA: orgID("GB-SHPE", row["RP Code"]),
					OrganisationIDB: orgID("GB-COH", row["Company Number"]),
				})
			}
			return links
		}),

		linkSpec(record.Source{
			Identifier:   "university_royal_charters",
			Title:        "University Royal Charters",
			Description:  "A list of royal charter company numbers for universities",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("university-royal-charters.csv", "University Royal Charters")},
		}, func(row map[string]string) []record.Link {
			return []record.Link{{
				OrganisationIDA: orgID("GB-EDU", row["URN"]),
				OrganisationIDB: orgID("GB-COH", row["CompanyNumber"]),
			}}
		}),

		linkSpec(record.Source{
			Identifier:   "independent_schools_ew",
			Title:        "Independent Schools Charity Numbers",
			Description:  "A list of charity numbers for independent schools",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("independent-schools-ew.csv", "Independent Schools Charity Numbers")},
		}, func(row map[string]string) []record.Link {
			link := record.Link{OrganisationIDA: orgID("GB-EDU", row["URN"])}
			if row["charity_number"] != "" {
				link.OrganisationIDB = orgID("GB-CHC", row["charity_number"])
			}
			return []record.Link{link}
		}),

		linkSpec(record.Source{
			Identifier:  "rom",
			Title:       "Register of Mergers",
			Description: "Register of Mergers kept by the Charity Commission for England and Wales.",
			License:     "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/2/",
			LicenseName: "Open Government Licence v2.0",
			Publisher: record.Publisher{
				Name:    "Charity Commission for England and Wales",
				Website: "https://www.gov.uk/charity-commission",
			},
			Distribution: []record.Distribution{lookupsDist("ccew-register-of-mergers.csv", "Register of Mergers")},
		}, func(row map[string]string) []record.Link {
			// only top-level charities, subsidiaries carry a non-zero subno
			link := record.Link{Description: "merger"}
			if row["transferor_subno"] == "0" {
				link.OrganisationIDA = orgID("GB-CHC", row["transferor_regno"])
			}
			if row["transferee_subno"] == "0" {
				link.OrganisationIDB = orgID("GB-CHC", row["transferee_regno"])
			}
			return []record.Link{link}
		}),

		linkSpec(record.Source{
			Identifier:   "cio_company_numbers",
			Title:        "CIO Company Numbers",
			Description:  "Match between CIO company numbers held by Companies House and their charity number",
			Publisher:    lookupsPublisher,
			Distribution: []record.Distribution{lookupsDist("cio_company_numbers.csv", "CIO Company Numbers")},
		}, func(row map[string]string) []record.Link {
			link := record.Link{}
			if row["company_number"] != "" {
				link.OrganisationIDA = orgID("GB-COH", row["company_number"])
			}
			if row["charity_number"] != "" {
				link.OrganisationIDB = orgID("GB-CHC", row["charity_number"])
			}
			return []record.Link{link}
		}),
	}
}

// linkSpec wraps a row->links function into a Spec, stamping the source
// identifier and silently dropping any link with a missing side.
func linkSpec(src record.Source, parse func(row map[string]string) []record.Link) *Spec {
	src.Modified = now()
	transform := func(row map[string]string) ([]record.Record, error) {
		row = cleanRow(row)
		out := []record.Record{}
		for _, link := range parse(row) {
			link := link
			link.Source = src.Identifier
			if link.PrimaryKey() == "" {
				continue
			}
			out = append(out, &link)
		}
		return out, nil
	}
	return &Spec{Name: src.Identifier, Source: src, Transform: transform}
}
