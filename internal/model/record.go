package model

import (
	"fmt"
	"strconv"
)

// Canonical column names of the business table.
const (
	ColBusiness = "Business"
	ColAddress  = "Address"
	ColWebsite  = "Website"
	ColContact  = "Contact"
	ColLat      = "Lat"
	ColLon      = "Lon"
	ColCounty   = "County"
	ColDriving  = "Driving"
)

// RequiredColumns must be present in every input table.
var RequiredColumns = []string{ColBusiness, ColAddress}

// EnrichedColumns are appended to the output header when the input lacks them.
var EnrichedColumns = []string{ColLat, ColLon, ColCounty, ColDriving}

// DrivingLinkFormat is the directions URL template, parameterized by lat,lon.
const DrivingLinkFormat = "https://www.google.com/maps/dir/?api=1&destination=%s,%s"

// Record is one business row. Records are treated as values: enrichment
// produces a new Record rather than mutating the one it was given.
type Record struct {
	Business string `json:"business"`
	// Address is nil when the cell was missing or empty.
	Address     *string           `json:"address"`
	Website     string            `json:"website,omitempty"`
	ContactLink string            `json:"contact_link,omitempty"`
	Lat         *float64          `json:"lat,omitempty"`
	Lon         *float64          `json:"lon,omitempty"`
	County      string            `json:"county,omitempty"`
	Driving     string            `json:"driving,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// AddressText returns the address or "" when missing.
func (r Record) AddressText() string {
	if r.Address == nil {
		return ""
	}
	return *r.Address
}

// Resolved reports whether the record already carries coordinates.
func (r Record) Resolved() bool {
	return r.Lat != nil && r.Lon != nil
}

// WithLocation returns a copy of r carrying the given coordinates, county and
// the derived driving link. Extra is copied so the result shares no state with r.
func (r Record) WithLocation(lat, lon float64, county string) Record {
	out := r
	out.Lat = &lat
	out.Lon = &lon
	out.County = county
	out.Driving = DrivingLink(lat, lon)
	out.Extra = copyExtra(r.Extra)
	return out
}

// WithoutLocation returns a copy of r with coordinates, county and driving
// link cleared. A record either carries all of them or none.
func (r Record) WithoutLocation() Record {
	out := r
	out.Lat = nil
	out.Lon = nil
	out.County = ""
	out.Driving = ""
	out.Extra = copyExtra(r.Extra)
	return out
}

func copyExtra(extra map[string]string) map[string]string {
	if extra == nil {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// DrivingLink builds the turn-by-turn directions URL for a coordinate pair.
func DrivingLink(lat, lon float64) string {
	return fmt.Sprintf(DrivingLinkFormat, FormatCoord(lat), FormatCoord(lon))
}

// FormatCoord renders a coordinate in the shortest form that parses back to
// the same float64, so re-written files stay byte-identical.
func FormatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Table is an ordered set of records plus the column order used to write them.
type Table struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}
