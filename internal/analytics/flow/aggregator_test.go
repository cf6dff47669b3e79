package flow

import (
	"math"
	"testing"

	"github.com/derivs-back/pkg/models"
)

func daily(date string, fii, dii float64) models.FIIDIIDailyRecord {
	return models.FIIDIIDailyRecord{Date: date, FIINetValue: fii, DIINetValue: dii}
}

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", label, got, want)
	}
}

func TestRollingAverage_UniformWindow(t *testing.T) {
	records := make([]models.FIIDIIDailyRecord, 5)
	for i := range records {
		records[i] = daily("2025-08-0"+string(rune('1'+i)), 1000, 2000)
	}

	got := RollingAverage(records, 5)
	if got == nil {
		t.Fatal("got nil")
	}
	assertClose(t, "fii", got.FIIRollingAvg, 1000)
	assertClose(t, "dii", got.DIIRollingAvg, 2000)
	assertClose(t, "combined", got.CombinedRollingAvg, 3000)
}

func TestRollingAverage_UsesTrailingRecords(t *testing.T) {
	records := []models.FIIDIIDailyRecord{
		daily("2025-08-01", 9999, 9999), // outside the window
		daily("2025-08-04", 100, 200),
		daily("2025-08-05", 300, 400),
	}

	got := RollingAverage(records, 2)
	assertClose(t, "fii", got.FIIRollingAvg, 200)
	assertClose(t, "dii", got.DIIRollingAvg, 300)
	assertClose(t, "combined", got.CombinedRollingAvg, 500)
}

func TestRollingAverage_ShortHistory(t *testing.T) {
	records := []models.FIIDIIDailyRecord{
		daily("2025-08-04", 100, -50),
		daily("2025-08-05", 300, 150),
	}

	// Window larger than history: average over what exists.
	got := RollingAverage(records, 5)
	assertClose(t, "fii", got.FIIRollingAvg, 200)
	assertClose(t, "dii", got.DIIRollingAvg, 50)
	assertClose(t, "combined", got.CombinedRollingAvg, 250)
}

func TestRollingAverage_CombinedIsSumOfMeans(t *testing.T) {
	records := []models.FIIDIIDailyRecord{
		daily("2025-08-04", -500, 800),
		daily("2025-08-05", 1500, -200),
	}

	got := RollingAverage(records, 2)
	assertClose(t, "combined", got.CombinedRollingAvg, got.FIIRollingAvg+got.DIIRollingAvg)
}

func TestRollingAverage_Empty(t *testing.T) {
	if got := RollingAverage(nil, 5); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestCumulativeTotals(t *testing.T) {
	records := []models.FIIDIIDailyRecord{
		daily("2025-08-01", 100, -50),
		daily("2025-08-04", -300, 250),
		daily("2025-08-05", 500, 100),
	}

	got := CumulativeTotals(records)
	assertClose(t, "fii", got.FIICumulative, 300)
	assertClose(t, "dii", got.DIICumulative, 300)
	assertClose(t, "combined", got.CombinedCumulative, 600)
}

func TestCumulativeTotals_Empty(t *testing.T) {
	if got := CumulativeTotals(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestActivitySentiment(t *testing.T) {
	cases := []struct {
		name     string
		fii, dii float64
		want     string
		color    string
	}{
		{"both buying", 1200, 800, models.BiasBullish, ColorBullish},
		{"both selling", -1200, -800, models.BiasBearish, ColorBearish},
		{"mixed", 1200, -800, models.BiasNeutral, ColorNeutral},
		{"mixed other way", -1200, 800, models.BiasNeutral, ColorNeutral},
		{"fii flat", 0.5, 800, models.BiasNeutral, ColorNeutral},
		{"both flat", 0.2, -0.7, models.BiasNeutral, ColorNeutral},
		{"at threshold buying", 1.0, 1.0, models.BiasBullish, ColorBullish},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ActivitySentiment(tc.fii, tc.dii)
			if got.Sentiment != tc.want {
				t.Errorf("sentiment=%q, want %q", got.Sentiment, tc.want)
			}
			if got.Color != tc.color {
				t.Errorf("color=%q, want %q", got.Color, tc.color)
			}
		})
	}
}

func TestLatestRecord(t *testing.T) {
	records := []models.FIIDIIDailyRecord{
		daily("2025-08-04", 1, 1),
		daily("2025-08-06", 3, 3),
		daily("2025-08-05", 2, 2),
	}

	got := LatestRecord(records)
	if got == nil || got.Date != "2025-08-06" {
		t.Fatalf("got %+v, want the 2025-08-06 record", got)
	}

	// Returned value is a copy, not an alias into the input.
	got.FIINetValue = 999
	if records[1].FIINetValue != 3 {
		t.Error("LatestRecord aliased the input slice")
	}
}

func TestLatestRecord_Empty(t *testing.T) {
	if got := LatestRecord(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}
