package sqlstore

import "fmt"

// tableDef describes one destination table: its column order and which
// columns form the primary key. Rows projected by record.ToRows must
// supply exactly these columns.
type tableDef struct {
	name    string
	columns []string
	pks     []string
}

// dataTables lists every table canonical records project into, in
// create order. The scrape ledger table is handled separately - its
// rows are per-run, never per-record, and are never purged.
var dataTables = []tableDef{
	{
		name: "organisation",
		columns: []string{
			"id", "name", "charityNumber", "companyNumber",
			"streetAddress", "addressLocality", "addressRegion",
			"addressCountry", "postalCode", "telephone", "email",
			"description", "url", "latestIncome", "latestIncomeDate",
			"dateRegistered", "dateRemoved", "active", "parent",
			"dateModified", "scrape_id", "spider",
		},
		pks: []string{"id"},
	},
	{
		name: "location",
		columns: []string{
			"id", "name", "countryCode", "latitude", "longitude",
			"description", "geoCode", "geoCodeType", "dateModified",
			"scrape_id", "spider",
		},
		pks: []string{"id"},
	},
	{
		name: "source",
		columns: []string{
			"identifier", "title", "description", "license",
			"license_name", "issued", "modified", "publisher_name",
			"publisher_website", "scrape_id", "spider",
		},
		pks: []string{"identifier"},
	},
	{
		name: "distribution",
		columns: []string{
			"source_id", "title", "downloadURL", "accessURL",
			"scrape_id", "spider",
		},
		pks: []string{"source_id", "title"},
	},
	{
		name:    "organisation_locations",
		columns: []string{"organisation_id", "location_id", "scrape_id", "spider"},
		pks:     []string{"organisation_id", "location_id"},
	},
	{
		name:    "orgids",
		columns: []string{"id", "organisation_id", "scrape_id", "spider"},
		pks:     []string{"id", "organisation_id"},
	},
	{
		name:    "organisation_sources",
		columns: []string{"organisation_id", "source_id", "scrape_id", "spider"},
		pks:     []string{"organisation_id", "source_id"},
	},
	{
		name:    "organisation_names",
		columns: []string{"organisation_id", "name", "scrape_id", "spider"},
		pks:     []string{"organisation_id", "name"},
	},
	{
		name:    "organisation_types",
		columns: []string{"organisation_id", "organisationType", "scrape_id", "spider"},
		pks:     []string{"organisation_id", "organisationType"},
	},
	{
		name:    "links",
		columns: []string{"organisation_id_a", "organisation_id_b", "description", "source_id", "scrape_id", "spider"},
		pks:     []string{"organisation_id_a", "organisation_id_b"},
	},
}

var tableDefsByName = func() map[string]tableDef {
	m := map[string]tableDef{}
	for _, def := range dataTables {
		m[def.name] = def
	}
	return m
}()

const schemaVersion = 1

func (ss *SQLStore) checkSchema() error {
	ver, err := ss.currentSchemaVersion()
	if err != nil {
		return err
	}
	if ver == schemaVersion {
		return nil // up to date.
	}

	// auto schema management currently only for sqlite.
	if ss.driverName != "sqlite3" {
		return fmt.Errorf("missing schema (create it with the supplied DDL first)")
	}

	if ver != 0 {
		return fmt.Errorf("no schema upgrade path (from ver %d)", ver)
	}

	stmts := []string{
		`CREATE TABLE organisation (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			charityNumber TEXT NOT NULL DEFAULT '',
			companyNumber TEXT NOT NULL DEFAULT '',
			streetAddress TEXT NOT NULL DEFAULT '',
			addressLocality TEXT NOT NULL DEFAULT '',
			addressRegion TEXT NOT NULL DEFAULT '',
			addressCountry TEXT NOT NULL DEFAULT '',
			postalCode TEXT NOT NULL DEFAULT '',
			telephone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			latestIncome BIGINT DEFAULT NULL,
			latestIncomeDate TIMESTAMP DEFAULT NULL,
			dateRegistered TIMESTAMP DEFAULT NULL,
			dateRemoved TIMESTAMP DEFAULT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			parent TEXT NOT NULL DEFAULT '',
			dateModified TIMESTAMP DEFAULT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '')`,

		`CREATE TABLE location (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			countryCode TEXT NOT NULL DEFAULT '',
			latitude REAL DEFAULT NULL,
			longitude REAL DEFAULT NULL,
			description TEXT NOT NULL DEFAULT '',
			geoCode TEXT NOT NULL DEFAULT '',
			geoCodeType TEXT NOT NULL DEFAULT '',
			dateModified TIMESTAMP DEFAULT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '')`,

		`CREATE TABLE source (
			identifier TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			license TEXT NOT NULL DEFAULT '',
			license_name TEXT NOT NULL DEFAULT '',
			issued TIMESTAMP DEFAULT NULL,
			modified TIMESTAMP DEFAULT NULL,
			publisher_name TEXT NOT NULL DEFAULT '',
			publisher_website TEXT NOT NULL DEFAULT '',
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '')`,

		`CREATE TABLE distribution (
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			downloadURL TEXT NOT NULL DEFAULT '',
			accessURL TEXT NOT NULL DEFAULT '',
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (source_id, title))`,

		`CREATE TABLE organisation_locations (
			organisation_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (organisation_id, location_id))`,

		`CREATE TABLE orgids (
			id TEXT NOT NULL,
			organisation_id TEXT NOT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (id, organisation_id))`,

		`CREATE TABLE organisation_sources (
			organisation_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (organisation_id, source_id))`,

		`CREATE TABLE organisation_names (
			organisation_id TEXT NOT NULL,
			name TEXT NOT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (organisation_id, name))`,

		`CREATE TABLE organisation_types (
			organisation_id TEXT NOT NULL,
			organisationType TEXT NOT NULL,
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (organisation_id, organisationType))`,

		`CREATE TABLE links (
			organisation_id_a TEXT NOT NULL,
			organisation_id_b TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL DEFAULT '',
			scrape_id TEXT NOT NULL DEFAULT '',
			spider TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (organisation_id_a, organisation_id_b))`,

		`CREATE TABLE scrape (
			id TEXT PRIMARY KEY,
			spider TEXT NOT NULL DEFAULT '',
			stats TEXT NOT NULL DEFAULT '',
			finish_reason TEXT NOT NULL DEFAULT '',
			errors INTEGER NOT NULL DEFAULT 0,
			start_time TIMESTAMP DEFAULT NULL,
			finish_time TIMESTAMP DEFAULT NULL)`,

		`CREATE INDEX organisation_spider ON organisation(spider)`,
		`CREATE INDEX orgids_organisation_id ON orgids(organisation_id)`,
		`CREATE INDEX links_b ON links(organisation_id_b)`,

		`CREATE TABLE version (ver INTEGER NOT NULL)`,
		fmt.Sprintf(`INSERT INTO version (ver) VALUES (%d)`, schemaVersion),
	}

	for _, stmt := range stmts {
		if _, err := ss.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema create failed: %w", err)
		}
	}
	return nil
}

// returns 0 if no schema present.
func (ss *SQLStore) currentSchemaVersion() (int, error) {
	var ver int
	err := ss.db.QueryRow(`SELECT MAX(ver) FROM version`).Scan(&ver)
	if err != nil {
		// no version table - treat as empty db
		return 0, nil
	}
	return ver, nil
}
