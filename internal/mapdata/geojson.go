// Package mapdata turns an enriched table into what the map front end
// consumes: GeoJSON points, county groupings and a small read-only API.
package mapdata

import (
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/biz-in-support/bizmap/internal/model"
)

// FeatureCollection encodes the resolved records as GeoJSON points, in input
// order. A non-empty county keeps only records in that county, compared
// case-insensitively. Unresolved records are never rendered.
func FeatureCollection(records []model.Record, county string) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, rec := range records {
		if !rec.Resolved() || !inCounty(rec, county) {
			continue
		}
		fc.Features = append(fc.Features, Feature(rec))
	}
	return fc
}

// Feature encodes one resolved record. GeoJSON orders coordinates lon, lat.
func Feature(rec model.Record) *geojson.Feature {
	props := map[string]interface{}{
		"business": rec.Business,
		"address":  strings.TrimSpace(rec.AddressText()),
		"county":   rec.County,
		"driving":  rec.Driving,
	}
	if rec.Website != "" {
		props["website"] = rec.Website
	}
	if rec.ContactLink != "" {
		props["contact"] = rec.ContactLink
	}
	return &geojson.Feature{
		Geometry:   geom.NewPointFlat(geom.XY, []float64{*rec.Lon, *rec.Lat}).SetSRID(4326),
		Properties: props,
	}
}

func inCounty(rec model.Record, county string) bool {
	return county == "" || strings.EqualFold(rec.County, county)
}
