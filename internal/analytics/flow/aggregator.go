// Package flow computes rolling and cumulative aggregates over daily
// FII/DII institutional-flow records plus a qualitative sentiment label.
package flow

import (
	"math"
	"time"

	"github.com/derivs-back/pkg/models"
)

// DefaultWindow is the trailing-record count for rolling averages.
const DefaultWindow = 5

// FlatThreshold is the magnitude, in INR crores, below which a daily
// net flow counts as flat rather than directional.
const FlatThreshold = 1.0

// Sentiment colors matched to the dashboard palette.
const (
	ColorBullish = "green"
	ColorBearish = "red"
	ColorNeutral = "yellow"
)

// RollingAverage computes the arithmetic mean of the trailing window
// records, or of all records when there is not enough history. The
// combined average is the sum of the two independent means, not the
// mean of daily sums. Empty input yields nil.
func RollingAverage(records []models.FIIDIIDailyRecord, window int) *models.RollingAverage {
	if len(records) == 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if window > len(records) {
		window = len(records)
	}

	tail := records[len(records)-window:]
	var fiiSum, diiSum float64
	for _, r := range tail {
		fiiSum += r.FIINetValue
		diiSum += r.DIINetValue
	}

	n := float64(window)
	fiiAvg := fiiSum / n
	diiAvg := diiSum / n
	return &models.RollingAverage{
		FIIRollingAvg:      fiiAvg,
		DIIRollingAvg:      diiAvg,
		CombinedRollingAvg: fiiAvg + diiAvg,
	}
}

// CumulativeTotals sums flows over the full input set. The caller
// pre-filters to the desired period (month-to-date, expiry week, ...).
// Empty input yields nil.
func CumulativeTotals(records []models.FIIDIIDailyRecord) *models.CumulativeTotals {
	if len(records) == 0 {
		return nil
	}

	var t models.CumulativeTotals
	for _, r := range records {
		t.FIICumulative += r.FIINetValue
		t.DIICumulative += r.DIINetValue
	}
	t.CombinedCumulative = t.FIICumulative + t.DIICumulative
	return &t
}

// ActivitySentiment labels the day from the signs of both flows. Both
// flows buying reads bullish, both selling bearish, anything mixed or
// flat (within FlatThreshold of zero) neutral.
func ActivitySentiment(fiiNet, diiNet float64) models.ActivitySentiment {
	fiiFlat := math.Abs(fiiNet) < FlatThreshold
	diiFlat := math.Abs(diiNet) < FlatThreshold

	switch {
	case !fiiFlat && !diiFlat && fiiNet > 0 && diiNet > 0:
		return models.ActivitySentiment{Sentiment: models.BiasBullish, Color: ColorBullish}
	case !fiiFlat && !diiFlat && fiiNet < 0 && diiNet < 0:
		return models.ActivitySentiment{Sentiment: models.BiasBearish, Color: ColorBearish}
	default:
		return models.ActivitySentiment{Sentiment: models.BiasNeutral, Color: ColorNeutral}
	}
}

// LatestRecord returns the most recent record by date, or nil when the
// set is empty. Dates are ISO (YYYY-MM-DD); records whose date does not
// parse fall back to lexical comparison, which orders ISO dates the
// same way. Whether the latest record is stale relative to today is the
// caller's concern, not the aggregator's.
func LatestRecord(records []models.FIIDIIDailyRecord) *models.FIIDIIDailyRecord {
	if len(records) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(records); i++ {
		if laterDate(records[i].Date, records[best].Date) {
			best = i
		}
	}
	out := records[best]
	return &out
}

func laterDate(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA == nil && errB == nil {
		return ta.After(tb)
	}
	return a > b
}
