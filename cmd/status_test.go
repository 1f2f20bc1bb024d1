package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biz-in-support/bizmap/internal/mapdata"
	"github.com/biz-in-support/bizmap/internal/model"
)

func TestWriteGeoJSON_File(t *testing.T) {
	addr := "123 Main St"
	records := []model.Record{
		model.Record{Business: "Joe's Cafe", Address: &addr}.WithLocation(40.7608, -111.891, "Salt Lake County"),
		{Business: "Nowhere LLC"},
	}
	path := filepath.Join(t.TempDir(), "businesses.geojson")

	require.NoError(t, writeGeoJSON(path, mapdata.FeatureCollection(records, "")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Len(t, doc.Features, 1)
}

func TestWriteGeoJSON_CreateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "businesses.geojson")

	err := writeGeoJSON(path, mapdata.FeatureCollection(nil, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export: create output")
}
