package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

type fakeLookup struct {
	info *PostcodeInfo
	err  error
	seen []string
}

func (f *fakeLookup) Lookup(ctx context.Context, postcode string) (*PostcodeInfo, error) {
	f.seen = append(f.seen, postcode)
	return f.info, f.err
}

func exampleInfo() *PostcodeInfo {
	return &PostcodeInfo{
		Attributes: map[string]interface{}{
			"laua":      "E09000033",
			"laua_name": "Westminster",
			"ward":      "E05013806",
			"ward_name": "West End",
			// pseudo-area - must be skipped
			"cty":      "E99999999",
			"cty_name": "(pseudo) England (UA/MD/LB)",
			// not on the allow-list
			"pfa":      "E23000001",
			"pfa_name": "Metropolitan Police",
			"lat":      51.51,
			"long":     -0.14,
		},
		Lat:  51.51,
		Long: -0.14,
	}
}

func TestEnrichAddsLocations(t *testing.T) {
	stats := store.NewStats()
	lookup := &fakeLookup{info: exampleInfo()}
	e := NewEnricher(lookup, nil, stats, nil)

	org := &record.Organisation{ID: "GB-CHC-123456", PostalCode: "sw1a 1aa"}
	e.Enrich(context.Background(), org)

	// postcode was normalized before lookup
	require.Equal(t, []string{"SW1A 1AA"}, lookup.seen)

	byID := map[string]record.Location{}
	for _, loc := range org.Location {
		byID[loc.ID] = loc
	}
	require.Len(t, org.Location, 3) // laua + ward + centroid

	laua := byID["E09000033"]
	assert.Equal(t, "Westminster", laua.Name)
	assert.Equal(t, "GB", laua.CountryCode)
	assert.Equal(t, "LONB", laua.GeoCodeType) // E09 prefix
	assert.Equal(t, "E09000033", laua.GeoCode)

	centroid := byID["postcode-lat-long"]
	assert.Equal(t, 51.51, centroid.Latitude)
	assert.Equal(t, -0.14, centroid.Longitude)

	assert.Equal(t, int64(1), stats.Get("postcode/geodata_added"))
	assert.Equal(t, int64(1), stats.Get("postcode/fields/laua_added"))
	assert.Equal(t, int64(0), stats.Get("postcode/fields/cty_added"))
	assert.Equal(t, int64(0), stats.Get("postcode/fields/pfa_added"))
}

func TestEnrichSkips(t *testing.T) {
	stats := store.NewStats()
	lookup := &fakeLookup{info: exampleInfo()}
	e := NewEnricher(lookup, nil, stats, nil)
	ctx := context.Background()

	// no postcode
	e.Enrich(ctx, &record.Organisation{ID: "GB-CHC-1"})
	assert.Equal(t, int64(1), stats.Get("postcode/postcode_missing"))
	assert.Empty(t, lookup.seen)

	// location already present
	org := &record.Organisation{
		ID:         "GB-CHC-2",
		PostalCode: "AB1 2CD",
		Location:   []record.Location{{ID: "E05013806"}},
	}
	e.Enrich(ctx, org)
	assert.Equal(t, int64(1), stats.Get("postcode/geodata_exists"))
	assert.Len(t, org.Location, 1)
	assert.Empty(t, lookup.seen)
}

func TestEnrichLookupFailureNotFatal(t *testing.T) {
	stats := store.NewStats()
	e := NewEnricher(&fakeLookup{err: ErrNotFound}, nil, stats, nil)

	org := &record.Organisation{ID: "GB-CHC-3", PostalCode: "ZZ9 9ZZ"}
	e.Enrich(context.Background(), org)
	assert.Empty(t, org.Location)
	assert.Equal(t, int64(1), stats.Get("postcode/postcode_not_found"))

	e = NewEnricher(&fakeLookup{err: errors.New("boom")}, nil, stats, nil)
	e.Enrich(context.Background(), org)
	assert.Empty(t, org.Location)
	assert.Equal(t, int64(2), stats.Get("postcode/postcode_not_found"))
}

func TestHTTPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/postcodes/SW1A 1AA.json", "/postcodes/SW1A%201AA.json":
			w.Write([]byte(`{"data":{"attributes":{"laua":"E09000033","laua_name":"Westminster","lat":51.51,"long":-0.14}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLookup(srv.URL + "/postcodes/%s.json")
	info, err := l.Lookup(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	assert.Equal(t, "E09000033", info.Attributes["laua"])
	assert.Equal(t, 51.51, info.Lat)

	_, err = l.Lookup(context.Background(), "ZZ9 9ZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}
