package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/biz-in-support/bizmap/internal/mapdata"
	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	runs := []model.Run{
		{
			ID:         "0123456789abcdef",
			InputPath:  "data.csv",
			Status:     model.RunStatusComplete,
			Summary:    &model.Summary{Resolved: 7, NotFound: 2, Failed: 1},
			StartedAt:  started,
			FinishedAt: &finished,
		},
		{
			ID:        "short",
			InputPath: "/very/long/path/to/some/deeply/nested/businesses.csv",
			Status:    model.RunStatusRunning,
			StartedAt: started,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "businesses.csv")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.Snapshot{
		LookbackHours:  24,
		RunsTotal:      3,
		RunsComplete:   2,
		RunsFailed:     1,
		Lookups:        10,
		Resolved:       8,
		NotFound:       1,
		LookupFailed:   1,
		LookupFailRate: 0.2,
	})
	out := buf.String()
	assert.Contains(t, out, "24h")
	assert.Contains(t, out, "20.0%")
}

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, mapdata.Status{
		Total:      3,
		Resolved:   2,
		Unresolved: []string{"Nowhere LLC"},
		Counties:   []mapdata.CountyCount{{County: "Salt Lake County", Count: 2}},
	})
	out := buf.String()
	assert.Contains(t, out, "Salt Lake County")
	assert.Contains(t, out, "COUNTY")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijkl"))
	assert.Equal(t, "abc", truncateID("abc"))
}
