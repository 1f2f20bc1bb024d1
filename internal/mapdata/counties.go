package mapdata

import (
	"sort"

	"github.com/biz-in-support/bizmap/internal/model"
)

// CountyCount is the number of resolved businesses in one county.
type CountyCount struct {
	County string `json:"county"`
	Count  int    `json:"count"`
}

// Status summarizes an enriched table for operators.
type Status struct {
	Total      int           `json:"total"`
	Resolved   int           `json:"resolved"`
	Unresolved []string      `json:"unresolved"`
	Counties   []CountyCount `json:"counties"`
}

// Counties groups resolved records by county, sorted by name.
func Counties(records []model.Record) []CountyCount {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Resolved() {
			counts[rec.County]++
		}
	}

	out := make([]CountyCount, 0, len(counts))
	for county, n := range counts {
		out = append(out, CountyCount{County: county, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].County < out[j].County })
	return out
}

// Summarize reports resolved and unresolved counts plus the county breakdown.
func Summarize(records []model.Record) Status {
	s := Status{Total: len(records), Unresolved: []string{}, Counties: Counties(records)}
	for _, rec := range records {
		if rec.Resolved() {
			s.Resolved++
		} else {
			s.Unresolved = append(s.Unresolved, rec.Business)
		}
	}
	return s
}
