package gann

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (diff=%.6f)", label, got, want, math.Abs(got-want))
	}
}

func TestCompute_ReferenceGrid25000(t *testing.T) {
	// sqrt(25000)=158.11388..., step=0.125 -> baseGrid=158.0.
	// S1 = 157.875^2 = 24924.52, R1 = 158.25^2 = 25043.06 (2dp).
	set, err := Compute(25000, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(set.Supports) != 5 || len(set.Resistances) != 5 {
		t.Fatalf("got %d supports / %d resistances, want 5/5", len(set.Supports), len(set.Resistances))
	}

	wantSupports := []float64{24924.52, 24885.06, 24845.64, 24806.25, 24766.89}
	wantResistances := []float64{25043.06, 25082.64, 25122.25, 25161.89, 25201.56}
	for i, l := range set.Supports {
		if l.Order != i+1 {
			t.Errorf("support %d: order=%d, want %d", i, l.Order, i+1)
		}
		assertClose(t, "S"+string(rune('1'+i)), l.Value, wantSupports[i], 0.001)
	}
	for i, l := range set.Resistances {
		if l.Order != i+1 {
			t.Errorf("resistance %d: order=%d, want %d", i, l.Order, i+1)
		}
		assertClose(t, "R"+string(rune('1'+i)), l.Value, wantResistances[i], 0.001)
	}
}

func TestCompute_Monotonicity(t *testing.T) {
	for _, base := range []float64{42.5, 1850, 25000, 48750.25, 103211} {
		set, err := Compute(base, Options{})
		if err != nil {
			t.Fatalf("Compute(%v): %v", base, err)
		}
		for i := 1; i < len(set.Supports); i++ {
			if set.Supports[i].Value >= set.Supports[i-1].Value {
				t.Errorf("base %v: supports not strictly decreasing at order %d: %v then %v",
					base, i+1, set.Supports[i-1].Value, set.Supports[i].Value)
			}
		}
		for i := 1; i < len(set.Resistances); i++ {
			if set.Resistances[i].Value <= set.Resistances[i-1].Value {
				t.Errorf("base %v: resistances not strictly increasing at order %d: %v then %v",
					base, i+1, set.Resistances[i-1].Value, set.Resistances[i].Value)
			}
		}
		if set.Supports[0].Value >= base {
			t.Errorf("base %v: S1=%v not below base", base, set.Supports[0].Value)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(48213.35, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b, err := Compute(48213.35, Options{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i := range a.Supports {
		if a.Supports[i] != b.Supports[i] {
			t.Errorf("support %d differs between identical calls: %+v vs %+v", i, a.Supports[i], b.Supports[i])
		}
	}
	for i := range a.Resistances {
		if a.Resistances[i] != b.Resistances[i] {
			t.Errorf("resistance %d differs between identical calls: %+v vs %+v", i, a.Resistances[i], b.Resistances[i])
		}
	}
}

func TestCompute_InvalidBasePrice(t *testing.T) {
	for _, base := range []float64{0, -100, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Compute(base, Options{}); err != ErrInvalidBasePrice {
			t.Errorf("Compute(%v): err=%v, want ErrInvalidBasePrice", base, err)
		}
	}
}

func TestCompute_CustomLevels(t *testing.T) {
	set, err := Compute(25000, Options{Levels: 3})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(set.Supports) != 3 || len(set.Resistances) != 3 {
		t.Fatalf("got %d/%d levels, want 3/3", len(set.Supports), len(set.Resistances))
	}
	if _, ok := set.Support(4); ok {
		t.Error("Support(4) should be undefined with 3 configured levels")
	}
}
