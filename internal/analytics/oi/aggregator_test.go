package oi

import (
	"reflect"
	"testing"

	"github.com/derivs-back/pkg/models"
)

func rec(strike float64, ts string, callChg, putChg float64) models.OIChangeRecord {
	return models.OIChangeRecord{
		Strike:       strike,
		Time:         ts,
		CallChangeOI: callChg,
		PutChangeOI:  putChg,
	}
}

func TestAggregateByStrike_LatestWins(t *testing.T) {
	batch := []models.OIChangeRecord{
		rec(25000, "10:30", 100, 200),
		rec(25000, "11:45", 150, 250),
		rec(25000, "09:20", 50, 75),
		rec(24900, "11:00", -30, 40),
	}

	got := AggregateByStrike(batch)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Sorted ascending by strike.
	if got[0].Strike != 24900 || got[1].Strike != 25000 {
		t.Errorf("strikes=%v/%v, want 24900/25000", got[0].Strike, got[1].Strike)
	}
	if got[1].Time != "11:45" || got[1].CallChangeOI != 150 {
		t.Errorf("kept %+v, want the 11:45 observation", got[1])
	}
}

func TestAggregateByStrike_Idempotent(t *testing.T) {
	aggregated := []models.OIChangeRecord{
		rec(24800, "11:00", 10, 20),
		rec(24900, "11:00", 30, 40),
		rec(25000, "11:00", 50, 60),
	}

	got := AggregateByStrike(aggregated)
	if !reflect.DeepEqual(got, aggregated) {
		t.Errorf("re-aggregation changed the set:\ngot  %+v\nwant %+v", got, aggregated)
	}
}

func TestAggregateByStrike_SortsRegardlessOfInputOrder(t *testing.T) {
	batch := []models.OIChangeRecord{
		rec(25100, "10:00", 1, 1),
		rec(24900, "10:00", 2, 2),
		rec(25000, "10:00", 3, 3),
	}

	got := AggregateByStrike(batch)
	for i := 1; i < len(got); i++ {
		if got[i].Strike <= got[i-1].Strike {
			t.Errorf("strikes not strictly ascending: %v then %v", got[i-1].Strike, got[i].Strike)
		}
	}
}

func TestAggregateByStrike_Empty(t *testing.T) {
	if got := AggregateByStrike(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestTotals_SignPreserving(t *testing.T) {
	batch := []models.OIChangeRecord{
		rec(24900, "10:00", 500, -200),
		rec(25000, "10:00", -300, 700),
		rec(25100, "10:00", 100, -100),
	}

	got := Totals(batch)
	if got.TotalCallChangeOI != 300 {
		t.Errorf("call total=%v, want 300 (signed sum)", got.TotalCallChangeOI)
	}
	if got.TotalPutChangeOI != 400 {
		t.Errorf("put total=%v, want 400 (signed sum)", got.TotalPutChangeOI)
	}
}

func TestTotals_Empty(t *testing.T) {
	got := Totals(nil)
	if got.TotalCallChangeOI != 0 || got.TotalPutChangeOI != 0 {
		t.Errorf("got %+v, want zero totals", got)
	}
}

func TestAlignTimeSeries(t *testing.T) {
	batch := []models.OIChangeRecord{
		rec(25000, "14:30", 3, 3),
		rec(25000, "09:20", 1, 1),
		rec(25000, "11:05", 2, 2),
	}

	got := AlignTimeSeries(batch)
	wantTimes := []string{"09:20", "11:05", "14:30"}
	for i, w := range wantTimes {
		if got[i].Time != w {
			t.Errorf("position %d: time=%q, want %q", i, got[i].Time, w)
		}
	}

	// Input order must be preserved, not mutated.
	if batch[0].Time != "14:30" {
		t.Error("AlignTimeSeries mutated its input")
	}
}

func TestAlignTimeSeries_UnparseableTimesSortFirst(t *testing.T) {
	batch := []models.OIChangeRecord{
		rec(25000, "10:00", 1, 1),
		rec(25000, "bogus", 2, 2),
	}

	got := AlignTimeSeries(batch)
	if got[0].Time != "bogus" {
		t.Errorf("first=%q, want the unparseable record first", got[0].Time)
	}
}
