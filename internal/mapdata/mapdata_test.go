package mapdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleRecords() []model.Record {
	return []model.Record{
		model.Record{Business: "Joe's Cafe", Address: ptr("123 Main St"), Website: "https://joes.example"}.
			WithLocation(40.7608, -111.891, "Salt Lake County"),
		{Business: "Nowhere LLC", Address: ptr("999 Nowhere Ave")},
		model.Record{Business: "Ogden Tools", Address: ptr("5 Elm St ")}.
			WithLocation(41.223, -111.9738, "Weber County"),
		model.Record{Business: "Tea Room", Address: ptr("9 State St")}.
			WithLocation(40.75, -111.88, "Salt Lake County"),
	}
}

type generic map[string]interface{}

func encode(t *testing.T, v interface{}) generic {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out generic
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestFeatureCollection_OnlyResolved(t *testing.T) {
	fc := FeatureCollection(sampleRecords(), "")
	require.Len(t, fc.Features, 3)

	doc := encode(t, fc)
	assert.Equal(t, "FeatureCollection", doc["type"])

	first := doc["features"].([]interface{})[0].(map[string]interface{})
	geometry := first["geometry"].(map[string]interface{})
	assert.Equal(t, "Point", geometry["type"])
	assert.Equal(t, []interface{}{-111.891, 40.7608}, geometry["coordinates"])

	props := first["properties"].(map[string]interface{})
	assert.Equal(t, "Joe's Cafe", props["business"])
	assert.Equal(t, "Salt Lake County", props["county"])
	assert.Equal(t, "https://joes.example", props["website"])
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=40.7608,-111.891", props["driving"])
}

func TestFeatureCollection_CountyFilter(t *testing.T) {
	fc := FeatureCollection(sampleRecords(), "weber county")
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Ogden Tools", fc.Features[0].Properties["business"])
	assert.Equal(t, "5 Elm St", fc.Features[0].Properties["address"])
}

func TestFeatureCollection_EmptyEncodesEmptyArray(t *testing.T) {
	doc := encode(t, FeatureCollection(nil, ""))
	assert.Equal(t, []interface{}{}, doc["features"])
}

func TestCounties(t *testing.T) {
	assert.Equal(t, []CountyCount{
		{County: "Salt Lake County", Count: 2},
		{County: "Weber County", Count: 1},
	}, Counties(sampleRecords()))
	assert.Empty(t, Counties(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Resolved)
	assert.Equal(t, []string{"Nowhere LLC"}, s.Unresolved)
	assert.Len(t, s.Counties, 2)
}

func TestSource_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("Business,Address,Lat,Lon,County,Driving\nA,1 A St,40.1,-111.1,Utah County,x\n"), 0o644))

	src := NewSource(path, dataset.Options{})
	recs, err := src.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)

	again, err := src.Records(context.Background())
	require.NoError(t, err)
	assert.Same(t, &recs[0], &again[0], "unchanged file is served from memory")

	require.NoError(t, os.WriteFile(path, []byte("Business,Address,Lat,Lon,County,Driving\nA,1 A St,40.1,-111.1,Utah County,x\nB,2 B St,,,,\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	recs, err = src.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestSource_MissingFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing.csv"), dataset.Options{})
	_, err := src.Records(context.Background())
	require.Error(t, err)
}

type staticSource struct {
	records []model.Record
	err     error
}

func (s staticSource) Records(context.Context) ([]model.Record, error) { return s.records, s.err }

func TestRouter_Health(t *testing.T) {
	srv := httptest.NewServer(NewRouter(staticSource{}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Counties(t *testing.T) {
	srv := httptest.NewServer(NewRouter(staticSource{records: sampleRecords()}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/counties")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []CountyCount
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, Counties(sampleRecords()), got)
}

func TestRouter_RecordsByCounty(t *testing.T) {
	srv := httptest.NewServer(NewRouter(staticSource{records: sampleRecords()}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/records?county=Salt%20Lake%20County")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var doc generic
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Len(t, doc["features"], 2)
}

func TestRouter_CORS(t *testing.T) {
	srv := httptest.NewServer(NewRouter(staticSource{}, []string{"https://map.example"}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://map.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://map.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_SourceError(t *testing.T) {
	srv := httptest.NewServer(NewRouter(staticSource{err: errors.New("boom")}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/records")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
