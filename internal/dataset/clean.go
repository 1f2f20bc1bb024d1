package dataset

import (
	"strings"

	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/model"
)

// Drop reasons reported by Clean, in the order they are checked.
const (
	ReasonMissing     = "missing"
	ReasonBlank       = "blank"
	ReasonNonPhysical = "non_physical"
)

// CleanReport counts what Clean removed.
type CleanReport struct {
	Before    int            `json:"before"`
	Removed   int            `json:"removed"`
	Remaining int            `json:"remaining"`
	ByReason  map[string]int `json:"by_reason"`
}

// Clean drops records without a usable physical address: a missing address,
// an address that is blank after trimming, or one equal to sentinel ignoring
// case. An empty sentinel disables the last check. Order is preserved and
// the input slice is not modified.
func Clean(records []model.Record, sentinel string) ([]model.Record, CleanReport) {
	sentinel = strings.TrimSpace(sentinel)
	report := CleanReport{
		Before:   len(records),
		ByReason: make(map[string]int),
	}

	kept := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if reason := dropReason(rec, sentinel); reason != "" {
			report.ByReason[reason]++
			report.Removed++
			continue
		}
		kept = append(kept, rec)
	}
	report.Remaining = len(kept)

	zap.L().Info("dataset: cleaned records",
		zap.Int("before", report.Before),
		zap.Int("removed", report.Removed),
		zap.Int("remaining", report.Remaining),
		zap.Int("missing", report.ByReason[ReasonMissing]),
		zap.Int("blank", report.ByReason[ReasonBlank]),
		zap.Int("non_physical", report.ByReason[ReasonNonPhysical]),
	)

	return kept, report
}

func dropReason(rec model.Record, sentinel string) string {
	if rec.Address == nil {
		return ReasonMissing
	}
	addr := strings.TrimSpace(*rec.Address)
	if addr == "" {
		return ReasonBlank
	}
	if sentinel != "" && strings.EqualFold(addr, sentinel) {
		return ReasonNonPhysical
	}
	return ""
}
