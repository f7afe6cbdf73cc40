package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleOrg() *Organisation {
	return &Organisation{
		ID:               "GB-SC-123456",
		Name:             "Test Trust",
		CharityNumber:    "123456",
		PostalCode:       "AB1 2CD",
		AddressCountry:   "Scotland",
		AlternateName:    []string{"The Trust", "TT"},
		OrganisationType: []string{"Registered Charity", "Registered Charity (Scotland)"},
		OrgIDs:           []string{"GB-SC-123456", "GB-CHC-654321", "GB-COH-00000123"},
		Active:           true,
		DateModified:     time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC),
		Source:           "oscr",
	}
}

func TestAreaType(t *testing.T) {
	assert.Equal(t, "WD", AreaType("E05001234", "ward"))
	assert.Equal(t, "CTY", AreaType("E10000017", "cty"))
	assert.Equal(t, "DZ", AreaType("S01007623", "lsoa11"))
	// unknown prefixes fall back to the raw area-type key
	assert.Equal(t, "laua", AreaType("X99999999", "laua"))
	assert.Equal(t, "laua", AreaType("X9", "laua"))
}

func TestCompleteNames(t *testing.T) {
	org := &Organisation{
		Name:          "St Marys Church",
		AlternateName: []string{"Marys Church"},
	}
	names := org.CompleteNames()
	assert.ElementsMatch(t, []string{"St Marys Church", "Marys Church", "Church"}, names)
}

func TestToDocument(t *testing.T) {
	collection, id, body, err := ToDocument(exampleOrg())
	require.NoError(t, err)
	assert.Equal(t, "organisation", collection)
	assert.Equal(t, "GB-SC-123456", id)
	// key field removed from the body
	assert.NotContains(t, body, "id")
	assert.Equal(t, "Test Trust", body["name"])
	assert.Nil(t, body["dateRegistered"])
	assert.NotNil(t, body["dateModified"])

	// a link without both sides has no key and can't be indexed
	_, _, _, err = ToDocument(&Link{OrganisationIDA: "GB-CHC-1"})
	assert.Error(t, err)
}

func TestOrganisationToRows(t *testing.T) {
	tables, err := ToRows(exampleOrg(), "run-1", "oscr")
	require.NoError(t, err)

	require.Len(t, tables["organisation"], 1)
	orgRow := tables["organisation"][0]
	assert.Equal(t, "GB-SC-123456", orgRow["id"])
	assert.Equal(t, "run-1", orgRow["scrape_id"])
	assert.Equal(t, "oscr", orgRow["spider"])

	// one name-join row per alternate name
	assert.Len(t, tables["organisation_names"], 2)
	assert.Len(t, tables["organisation_types"], 2)

	// all org ids land in the orgids table, self included
	assert.Len(t, tables["orgids"], 3)

	// exactly one link row per non-self org id
	require.Len(t, tables["links"], 2)
	for _, row := range tables["links"] {
		assert.Equal(t, "GB-SC-123456", row["organisation_id_a"])
		assert.NotEqual(t, "GB-SC-123456", row["organisation_id_b"])
	}

	require.Len(t, tables["organisation_sources"], 1)
	assert.Equal(t, "oscr", tables["organisation_sources"][0]["source_id"])
}

func TestSourceToRows(t *testing.T) {
	src := &Source{
		Identifier:  "oscr",
		Title:       "OSCR Charity Register Download",
		License:     "http://www.nationalarchives.gov.uk/doc/open-government-licence/version/2/",
		LicenseName: "Open Government Licence v2.0",
		Publisher:   Publisher{Name: "OSCR", Website: "https://www.oscr.org.uk/"},
		Distribution: []Distribution{
			{Title: "Register download", DownloadURL: "https://example.org/register.zip"},
		},
	}
	tables, err := ToRows(src, "run-1", "oscr")
	require.NoError(t, err)
	require.Len(t, tables["source"], 1)
	assert.Equal(t, "OSCR", tables["source"][0]["publisher_name"])
	require.Len(t, tables["distribution"], 1)
	assert.Equal(t, "oscr", tables["distribution"][0]["source_id"])
}

func TestLinkToRows(t *testing.T) {
	link := &Link{
		OrganisationIDA: "GB-SC-123456",
		OrganisationIDB: "GB-CHC-654321",
		Description:     "Dual registered",
		Source:          "dual_registered",
	}
	tables, err := ToRows(link, "run-1", "manual_links")
	require.NoError(t, err)
	require.Len(t, tables["links"], 1)

	// either side empty: no rows at all
	for _, l := range []*Link{
		{OrganisationIDA: "GB-SC-123456"},
		{OrganisationIDB: "GB-CHC-654321"},
		{},
	} {
		tables, err := ToRows(l, "run-1", "manual_links")
		require.NoError(t, err)
		assert.Empty(t, tables)
	}
}
