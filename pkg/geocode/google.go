package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/biz-in-support/bizmap/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	AddressComponents []struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// googleComponentKeys maps Google component types onto Nominatim-style keys.
var googleComponentKeys = map[string]string{
	"administrative_area_level_2": "county",
	"administrative_area_level_1": "state",
	"locality":                    "city",
	"postal_code":                 "postcode",
	"country":                     "country",
	"route":                       "road",
	"street_number":               "house_number",
}

// Google looks addresses up with the Google Geocoding API.
type Google struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGoogle creates a Google Geocoding client.
func NewGoogle(opts ...Option) *Google {
	o := buildOptions(googleGeocodeURL, opts)
	return &Google{httpClient: o.httpClient, baseURL: o.baseURL, apiKey: o.apiKey}
}

// Lookup implements Lookuper. Google always returns address components, so
// AddressDetails has no effect.
func (g *Google) Lookup(ctx context.Context, query string, opts LookupOptions) (*Place, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	ctx, cancel := withCallTimeout(ctx, opts.Timeout)
	defer cancel()

	params := url.Values{
		"address": {query},
		"key":     {g.apiKey},
	}
	body, err := getJSON(ctx, g.httpClient, g.baseURL+"?"+params.Encode(), "", "google")
	if err != nil {
		return nil, err
	}

	var resp googleGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(eris.Errorf("geocode: google status %s", resp.Status), 0)
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	result := resp.Results[0]
	addr := make(map[string]string)
	for _, c := range result.AddressComponents {
		for _, t := range c.Types {
			if key, ok := googleComponentKeys[t]; ok {
				addr[key] = c.LongName
			}
		}
	}

	return &Place{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		DisplayName: result.FormattedAddress,
		Address:     addr,
		Source:      "google",
	}, nil
}
