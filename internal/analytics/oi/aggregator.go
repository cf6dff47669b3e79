// Package oi groups per-strike open-interest change records and computes
// signed change-OI totals.
package oi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/derivs-back/pkg/models"
)

// AggregateByStrike collapses a raw batch to one record per strike,
// keeping the record with the latest time, and returns the result sorted
// ascending by strike. Aggregating an already-aggregated batch returns
// the same set unchanged. Records with equal timestamps resolve to the
// later one in the batch.
func AggregateByStrike(records []models.OIChangeRecord) []models.OIChangeRecord {
	if len(records) == 0 {
		return nil
	}

	latest := make(map[float64]models.OIChangeRecord, len(records))
	for _, rec := range records {
		held, ok := latest[rec.Strike]
		if !ok || minuteKey(rec.Time) >= minuteKey(held.Time) {
			latest[rec.Strike] = rec
		}
	}

	out := make([]models.OIChangeRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Strike < out[j].Strike
	})
	return out
}

// Totals sums call and put change-OI across the batch. Sums are
// sign-preserving: positive and negative changes cancel arithmetically
// and the caller sees the signed net, never an absolute value.
func Totals(records []models.OIChangeRecord) models.OITotals {
	var t models.OITotals
	for _, rec := range records {
		t.TotalCallChangeOI += rec.CallChangeOI
		t.TotalPutChangeOI += rec.PutChangeOI
	}
	return t
}

// AlignTimeSeries returns the batch sorted ascending by time of day.
// The hours*60+minutes value is used strictly as a sort key and never
// persisted; records with unparseable times sort first.
func AlignTimeSeries(records []models.OIChangeRecord) []models.OIChangeRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]models.OIChangeRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return minuteKey(out[i].Time) < minuteKey(out[j].Time)
	})
	return out
}

// minuteKey converts an HH:MM[:SS] string to minutes of day, or -1 when
// it cannot be parsed.
func minuteKey(ts string) int {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 {
		return -1
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return -1
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return -1
	}
	return hour*60 + minute
}
