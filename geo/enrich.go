package geo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bcampbell/regomat/normalize"
	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

// area types worth attaching to organisations - county, local
// authority, ward, country, region, constituency, travel-to-work area,
// census areas
var DefaultFields = []string{
	"cty", "laua", "ward", "ctry", "rgn", "gor", "pcon", "ttwa", "lsoa11", "msoa11",
}

const locationDescription = "Based on postcode of registered office"

// Enricher fills in an organisation's location list from its postcode.
// Lookup failures are never fatal - the record just goes on without
// geography data.
type Enricher struct {
	lookup Lookup
	fields map[string]bool
	stats  *store.Stats
	log    *zap.SugaredLogger
}

func NewEnricher(lookup Lookup, fields []string, stats *store.Stats, log *zap.SugaredLogger) *Enricher {
	if fields == nil {
		fields = DefaultFields
	}
	if stats == nil {
		stats = store.NewStats()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	allowed := map[string]bool{}
	for _, f := range fields {
		allowed[f] = true
	}
	return &Enricher{lookup: lookup, fields: allowed, stats: stats, log: log}
}

// Enrich attaches locations derived from the organisation's postcode.
// A no-op when the organisation already has locations or has no usable
// postcode.
func (e *Enricher) Enrich(ctx context.Context, org *record.Organisation) {
	postcode := normalize.Postcode(org.PostalCode)
	if postcode == "" {
		e.stats.Inc("postcode/postcode_missing", 1)
		return
	}
	if len(org.Location) > 0 {
		e.stats.Inc("postcode/geodata_exists", 1)
		return
	}

	info, err := e.lookup.Lookup(ctx, postcode)
	if err != nil {
		if err != ErrNotFound {
			e.log.Debugw("postcode lookup failed", "postcode", postcode, "error", err)
		}
		e.stats.Inc("postcode/postcode_not_found", 1)
		return
	}

	for geotype, raw := range info.Attributes {
		geocode, ok := raw.(string)
		if !ok || geocode == "" {
			continue
		}
		name, haveName := info.Attributes[geotype+"_name"].(string)
		if !haveName || !e.fields[geotype] {
			continue
		}
		// codes ending 999999 are pseudo-areas (no fixed location)
		if strings.HasSuffix(geocode, "999999") {
			continue
		}
		org.Location = append(org.Location, record.Location{
			ID:          geocode,
			Name:        name,
			CountryCode: "GB",
			GeoCode:     geocode,
			GeoCodeType: record.AreaType(geocode, geotype),
			Description: locationDescription,
		})
		e.stats.Inc("postcode/fields/"+geotype+"_added", 1)
	}

	if info.Lat != 0 && info.Long != 0 {
		org.Location = append(org.Location, record.Location{
			ID:          "postcode-lat-long",
			Name:        "Registered office (latitude and longitude based on the postcode)",
			CountryCode: "GB",
			Latitude:    info.Lat,
			Longitude:   info.Long,
			Description: locationDescription,
		})
		e.stats.Inc("postcode/fields/latlong_added", 1)
	}

	if len(org.Location) > 0 {
		e.stats.Inc("postcode/geodata_added", 1)
	} else {
		e.stats.Inc("postcode/geodata_not_added", 1)
	}
}
