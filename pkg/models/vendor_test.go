package models

import "testing"

func TestParseOIRows(t *testing.T) {
	rows := []RawOIRow{
		{StrikePrice: "25000", CallsChangeOI: "1500", PutsChangeOI: "-300", Time: "10:30", IndexClose: "25012.5"},
		{StrikePrice: "not-a-strike", CallsChangeOI: "1", Time: "10:30"},
		{StrikePrice: " 24900 ", CallsChangeOI: "garbage", PutsChangeOI: "200", Time: "10:30"},
	}

	got := ParseOIRows(rows)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2 (unparseable strike dropped)", len(got))
	}
	if got[0].Strike != 25000 || got[0].CallChangeOI != 1500 || got[0].PutChangeOI != -300 {
		t.Errorf("record 0 = %+v", got[0])
	}
	// One bad numeric column degrades to zero without dropping the row.
	if got[1].Strike != 24900 || got[1].CallChangeOI != 0 || got[1].PutChangeOI != 200 {
		t.Errorf("record 1 = %+v", got[1])
	}
}

func TestParseFlowRows(t *testing.T) {
	rows := []RawFlowRow{
		{CreatedAt: "2025-08-28", FIINetValue: "-1523.45", DIINetValue: "2011.20", LastTradePrice: "24850.6"},
		{CreatedAt: "", FIINetValue: "100"},
	}

	got := ParseFlowRows(rows)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 (dateless row dropped)", len(got))
	}
	if got[0].Date != "2025-08-28" || got[0].FIINetValue != -1523.45 || got[0].DIINetValue != 2011.20 {
		t.Errorf("record = %+v", got[0])
	}
}

func TestParseMaxPainRows(t *testing.T) {
	rows := []RawMaxPainRow{
		{Time: "10:30", MaxPain: "25000", SpotPrice: "25042.1"},
		{Time: "10:45", MaxPain: "n/a", SpotPrice: "25050"},
		{Time: "11:00", MaxPain: "24950", SpotPrice: "bad"},
	}

	got := ParseMaxPainRows(rows)
	if len(got) != 2 {
		t.Fatalf("got %d samples, want 2", len(got))
	}
	if got[0].MaxPain != 25000 || got[0].SpotPrice != 25042.1 {
		t.Errorf("sample 0 = %+v", got[0])
	}
	if got[1].MaxPain != 24950 || got[1].SpotPrice != 0 {
		t.Errorf("sample 1 = %+v (bad spot degrades to zero)", got[1])
	}
}

func TestGannLevelSetLookup(t *testing.T) {
	set := &GannLevelSet{
		BasePrice:   25000,
		Supports:    []GannLevel{{Order: 1, Value: 24924.52}, {Order: 2, Value: 24885.06}},
		Resistances: []GannLevel{{Order: 1, Value: 25043.06}},
	}

	if v, ok := set.Support(2); !ok || v != 24885.06 {
		t.Errorf("Support(2)=%v,%v", v, ok)
	}
	if _, ok := set.Support(3); ok {
		t.Error("Support(3) should be undefined")
	}
	if v, ok := set.Resistance(1); !ok || v != 25043.06 {
		t.Errorf("Resistance(1)=%v,%v", v, ok)
	}
}
