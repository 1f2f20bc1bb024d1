package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// nominatimPlace is one element of the /search jsonv2 response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Nominatim looks addresses up against an OpenStreetMap Nominatim server.
type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
}

// NewNominatim creates a Nominatim client.
func NewNominatim(opts ...Option) *Nominatim {
	o := buildOptions(nominatimBaseURL, opts)
	return &Nominatim{
		httpClient: o.httpClient,
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		userAgent:  o.userAgent,
		email:      o.email,
	}
}

// Lookup implements Lookuper.
func (n *Nominatim) Lookup(ctx context.Context, query string, opts LookupOptions) (*Place, error) {
	ctx, cancel := withCallTimeout(ctx, opts.Timeout)
	defer cancel()

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if opts.AddressDetails {
		params.Set("addressdetails", "1")
	}
	if n.email != "" {
		params.Set("email", n.email)
	}

	body, err := getJSON(ctx, n.httpClient, n.baseURL+"/search?"+params.Encode(), n.userAgent, "nominatim")
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return nil, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim malformed lat %q", p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim malformed lon %q", p.Lon)
	}

	return &Place{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: p.DisplayName,
		Address:     p.Address,
		Source:      "nominatim",
	}, nil
}
