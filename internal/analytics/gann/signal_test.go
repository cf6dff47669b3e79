package gann

import (
	"testing"

	"github.com/derivs-back/pkg/models"
)

func referenceSet(t *testing.T) *models.GannLevelSet {
	t.Helper()
	set, err := Compute(25000, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	return set
}

func TestDeriveSignal_NeutralAtBoundaries(t *testing.T) {
	set := referenceSet(t)
	s1, _ := set.Support(1)
	r1, _ := set.Resistance(1)

	// Exactly at S1 or R1 the trigger is strict, so the state is neutral.
	for _, price := range []float64{s1, r1, set.BasePrice} {
		state := DeriveSignal(price, set)
		if state.Signal != models.SignalWait {
			t.Errorf("price %v: signal=%q, want WAIT", price, state.Signal)
		}
		if state.Type != models.TrendSideways {
			t.Errorf("price %v: type=%q, want SIDEWAYS", price, state.Type)
		}
		if state.CurrentTarget != models.NotApplicable || state.StopLoss != models.NotApplicable {
			t.Errorf("price %v: target/stop=%q/%q, want N/A", price, state.CurrentTarget, state.StopLoss)
		}
	}
}

func TestDeriveSignal_NeutralProgress(t *testing.T) {
	set := referenceSet(t)
	state := DeriveSignal(set.BasePrice, set)

	if len(state.TargetsProgress) != 2 {
		t.Fatalf("got %d progress entries, want 2", len(state.TargetsProgress))
	}
	if state.TargetsProgress[0].Level != "S1" || state.TargetsProgress[0].Status != models.StatusSupport {
		t.Errorf("entry 0 = %+v, want S1/SUPPORT", state.TargetsProgress[0])
	}
	if state.TargetsProgress[1].Level != "R1" || state.TargetsProgress[1].Status != models.StatusResistance {
		t.Errorf("entry 1 = %+v, want R1/RESISTANCE", state.TargetsProgress[1])
	}
}

func TestDeriveSignal_BearishTierProgression(t *testing.T) {
	set := referenceSet(t)
	s1, _ := set.Support(1)
	s2, _ := set.Support(2)
	s3, _ := set.Support(3)
	s4, _ := set.Support(4)
	s5, _ := set.Support(5)

	// Walking the price down through the grid must hit the tiers in
	// exact order without skipping or reversing.
	cases := []struct {
		price      float64
		wantHit    string
		wantTarget string
		wantStop   float64
	}{
		{s1 - 0.01, "Below S1", formatLevel(s2), s1},
		{s2, "S2", formatLevel(s3), s2},
		{s2 - 0.01, "S2", formatLevel(s3), s2},
		{s3, "S3", formatLevel(s4), s3},
		{s4, "S4", formatLevel(s5), s4},
		{s5, "S5", models.AllTargetsHit, s5},
		{s5 - 200, "S5", models.AllTargetsHit, s5},
	}

	prevHit := ""
	order := map[string]int{"Below S1": 0, "S2": 1, "S3": 2, "S4": 3, "S5": 4}
	for _, tc := range cases {
		state := DeriveSignal(tc.price, set)
		if state.Signal != models.SignalPutBuy || state.Type != models.TrendBearish {
			t.Errorf("price %v: signal=%q/%q, want PUT BUY/BEARISH", tc.price, state.Signal, state.Type)
		}
		if state.TargetHit != tc.wantHit {
			t.Errorf("price %v: targetHit=%q, want %q", tc.price, state.TargetHit, tc.wantHit)
		}
		if state.CurrentTarget != tc.wantTarget {
			t.Errorf("price %v: currentTarget=%q, want %q", tc.price, state.CurrentTarget, tc.wantTarget)
		}
		if state.StopLoss != formatLevel(tc.wantStop) {
			t.Errorf("price %v: stopLoss=%q, want %q", tc.price, state.StopLoss, formatLevel(tc.wantStop))
		}
		if prevHit != "" && order[state.TargetHit] < order[prevHit] {
			t.Errorf("tier progression reversed: %q after %q", state.TargetHit, prevHit)
		}
		prevHit = state.TargetHit
	}
}

func TestDeriveSignal_BullishTierProgression(t *testing.T) {
	set := referenceSet(t)
	r1, _ := set.Resistance(1)
	r2, _ := set.Resistance(2)
	r3, _ := set.Resistance(3)
	r4, _ := set.Resistance(4)
	r5, _ := set.Resistance(5)

	cases := []struct {
		price      float64
		wantHit    string
		wantTarget string
		wantStop   float64
	}{
		{r1 + 0.01, "Above R1", formatLevel(r2), r1},
		{r2, "R2", formatLevel(r3), r2},
		{r3, "R3", formatLevel(r4), r3},
		{r4, "R4", formatLevel(r5), r4},
		{r5, "R5", models.AllTargetsHit, r5},
		{r5 + 500, "R5", models.AllTargetsHit, r5},
	}

	for _, tc := range cases {
		state := DeriveSignal(tc.price, set)
		if state.Signal != models.SignalCallBuy || state.Type != models.TrendBullish {
			t.Errorf("price %v: signal=%q/%q, want CALL BUY/BULLISH", tc.price, state.Signal, state.Type)
		}
		if state.TargetHit != tc.wantHit {
			t.Errorf("price %v: targetHit=%q, want %q", tc.price, state.TargetHit, tc.wantHit)
		}
		if state.CurrentTarget != tc.wantTarget {
			t.Errorf("price %v: currentTarget=%q, want %q", tc.price, state.CurrentTarget, tc.wantTarget)
		}
		if state.StopLoss != formatLevel(tc.wantStop) {
			t.Errorf("price %v: stopLoss=%q, want %q", tc.price, state.StopLoss, formatLevel(tc.wantStop))
		}
	}
}

func TestDeriveSignal_BearishProgressStatuses(t *testing.T) {
	set := referenceSet(t)
	s3, _ := set.Support(3)

	state := DeriveSignal(s3, set)
	if len(state.TargetsProgress) != 5 {
		t.Fatalf("got %d progress entries, want 5", len(state.TargetsProgress))
	}

	wantStatus := []string{
		models.StatusHit,    // S1 breached (price < S1)
		models.StatusHit,    // S2 breached (price <= S2)
		models.StatusHit,    // S3 breached (price == S3)
		models.StatusTarget, // S4 not reached
		models.StatusTarget, // S5 not reached
	}
	for i, p := range state.TargetsProgress {
		if p.Status != wantStatus[i] {
			t.Errorf("%s: status=%q, want %q", p.Level, p.Status, wantStatus[i])
		}
	}
}

func TestDeriveSignal_UndefinedTiersSkipped(t *testing.T) {
	set, err := Compute(25000, Options{Levels: 2})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	s1, _ := set.Support(1)
	s2, _ := set.Support(2)

	state := DeriveSignal(s1-0.01, set)
	if state.TargetHit != "Below S1" || state.CurrentTarget != formatLevel(s2) {
		t.Errorf("entry tier: hit=%q target=%q, want Below S1 / %v", state.TargetHit, state.CurrentTarget, s2)
	}
	if len(state.TargetsProgress) != 2 {
		t.Errorf("got %d progress entries, want 2 (undefined levels excluded)", len(state.TargetsProgress))
	}

	// Deepest defined tier breached: no deeper target remains.
	state = DeriveSignal(s2-10, set)
	if state.TargetHit != "S2" {
		t.Errorf("targetHit=%q, want S2", state.TargetHit)
	}
	if state.CurrentTarget != models.AllTargetsHit {
		t.Errorf("currentTarget=%q, want %q", state.CurrentTarget, models.AllTargetsHit)
	}
}

func TestDeriveSignal_EmptyLevels(t *testing.T) {
	if state := DeriveSignal(25000, nil); state != nil {
		t.Errorf("nil set: got %+v, want nil", state)
	}
	if state := DeriveSignal(25000, &models.GannLevelSet{}); state != nil {
		t.Errorf("empty set: got %+v, want nil", state)
	}
}
