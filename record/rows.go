package record

import "fmt"

// ToRows projects a record into relational rows, grouped by table.
// Every row carries the scrape id and spider name so a later run of the
// same source can purge rows this run didn't refresh.
// Links with a missing side project to no rows at all.
func ToRows(r Record, scrapeID, spider string) (Tables, error) {
	tables := Tables{}

	switch rec := r.(type) {
	case *Organisation:
		if rec.ID == "" {
			return nil, fmt.Errorf("organisation with no id")
		}
		tables["organisation"] = []Row{{
			"id":               rec.ID,
			"name":             rec.Name,
			"charityNumber":    rec.CharityNumber,
			"companyNumber":    rec.CompanyNumber,
			"streetAddress":    rec.StreetAddress,
			"addressLocality":  rec.AddressLocality,
			"addressRegion":    rec.AddressRegion,
			"addressCountry":   rec.AddressCountry,
			"postalCode":       rec.PostalCode,
			"telephone":        rec.Telephone,
			"email":            rec.Email,
			"description":      rec.Description,
			"url":              rec.URL,
			"latestIncome":     rec.LatestIncome,
			"latestIncomeDate": nilable(rec.LatestIncomeDate),
			"dateRegistered":   nilable(rec.DateRegistered),
			"dateRemoved":      nilable(rec.DateRemoved),
			"active":           rec.Active,
			"parent":           rec.Parent,
			"dateModified":     nilable(rec.DateModified),
			"scrape_id":        scrapeID,
			"spider":           spider,
		}}

		for _, loc := range rec.Location {
			tables["location"] = append(tables["location"], Row{
				"id":           loc.ID,
				"name":         loc.Name,
				"countryCode":  loc.CountryCode,
				"latitude":     loc.Latitude,
				"longitude":    loc.Longitude,
				"description":  loc.Description,
				"geoCode":      loc.GeoCode,
				"geoCodeType":  loc.GeoCodeType,
				"dateModified": nilable(rec.DateModified),
				"scrape_id":    scrapeID,
				"spider":       spider,
			})
			tables["organisation_locations"] = append(tables["organisation_locations"], Row{
				"organisation_id": rec.ID,
				"location_id":     loc.ID,
				"scrape_id":       scrapeID,
				"spider":          spider,
			})
		}

		for _, name := range rec.AlternateName {
			tables["organisation_names"] = append(tables["organisation_names"], Row{
				"organisation_id": rec.ID,
				"name":            name,
				"scrape_id":       scrapeID,
				"spider":          spider,
			})
		}

		for _, orgType := range rec.OrganisationType {
			tables["organisation_types"] = append(tables["organisation_types"], Row{
				"organisation_id":  rec.ID,
				"organisationType": orgType,
				"scrape_id":        scrapeID,
				"spider":           spider,
			})
		}

		for _, orgID := range rec.OrgIDs {
			tables["orgids"] = append(tables["orgids"], Row{
				"id":              orgID,
				"organisation_id": rec.ID,
				"scrape_id":       scrapeID,
				"spider":          spider,
			})
			// each foreign identifier becomes a cross-reference link
			if orgID != rec.ID {
				tables["links"] = append(tables["links"], Row{
					"organisation_id_a": rec.ID,
					"organisation_id_b": orgID,
					"description":       "Same organisation",
					"source_id":         rec.Source,
					"scrape_id":         scrapeID,
					"spider":            spider,
				})
			}
		}

		if rec.Source != "" {
			tables["organisation_sources"] = []Row{{
				"organisation_id": rec.ID,
				"source_id":       rec.Source,
				"scrape_id":       scrapeID,
				"spider":          spider,
			}}
		}

	case *Source:
		if rec.Identifier == "" {
			return nil, fmt.Errorf("source with no identifier")
		}
		tables["source"] = []Row{{
			"identifier":        rec.Identifier,
			"title":             rec.Title,
			"description":       rec.Description,
			"license":           rec.License,
			"license_name":      rec.LicenseName,
			"issued":            nilable(rec.Issued),
			"modified":          nilable(rec.Modified),
			"publisher_name":    rec.Publisher.Name,
			"publisher_website": rec.Publisher.Website,
			"scrape_id":         scrapeID,
			"spider":            spider,
		}}
		for _, dist := range rec.Distribution {
			tables["distribution"] = append(tables["distribution"], Row{
				"source_id":   rec.Identifier,
				"title":       dist.Title,
				"downloadURL": dist.DownloadURL,
				"accessURL":   dist.AccessURL,
				"scrape_id":   scrapeID,
				"spider":      spider,
			})
		}

	case *Link:
		// links with a missing side are dropped, not stored half-empty
		if rec.PrimaryKey() == "" {
			return tables, nil
		}
		tables["links"] = []Row{{
			"organisation_id_a": rec.OrganisationIDA,
			"organisation_id_b": rec.OrganisationIDB,
			"description":       rec.Description,
			"source_id":         rec.Source,
			"scrape_id":         scrapeID,
			"spider":            spider,
		}}

	default:
		return nil, fmt.Errorf("unknown record kind %s", r.Kind())
	}

	return tables, nil
}
