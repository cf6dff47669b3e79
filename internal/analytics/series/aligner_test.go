package series

import (
	"testing"

	"github.com/derivs-back/pkg/models"
)

func payload(times, prices string) *models.IntradaySeriesPayload {
	return &models.IntradaySeriesPayload{CreatedAt: times, SpotPrice: prices}
}

func TestAlignIntraday_WellFormed(t *testing.T) {
	points := AlignIntraday(payload("09:15,09:16,09:17", "100,101,99"))

	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	wantMinutes := []int{0, 1, 2}
	wantPrices := []float64{100, 101, 99}
	for i, p := range points {
		if p.MinutesSinceOpen != wantMinutes[i] {
			t.Errorf("point %d: minutes=%d, want %d", i, p.MinutesSinceOpen, wantMinutes[i])
		}
		if p.Price != wantPrices[i] {
			t.Errorf("point %d: price=%v, want %v", i, p.Price, wantPrices[i])
		}
	}
}

func TestAlignIntraday_DropsUnparseablePrice(t *testing.T) {
	points := AlignIntraday(payload("09:15,09:16,09:17", "100,abc,99"))

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (bad element dropped, not zero-filled)", len(points))
	}
	if points[0].Price != 100 || points[1].Price != 99 {
		t.Errorf("got prices %v/%v, want 100/99", points[0].Price, points[1].Price)
	}
}

func TestAlignIntraday_DropsUnpairedElements(t *testing.T) {
	// One more price than timestamps: the trailing price has no pair.
	points := AlignIntraday(payload("09:15,09:16", "100,101,102"))

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
}

func TestAlignIntraday_DropsPreMarket(t *testing.T) {
	points := AlignIntraday(payload("09:00,09:15,09:20", "99,100,101"))

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (pre-market dropped)", len(points))
	}
	if points[0].MinutesSinceOpen != 0 || points[1].MinutesSinceOpen != 5 {
		t.Errorf("got minutes %d/%d, want 0/5", points[0].MinutesSinceOpen, points[1].MinutesSinceOpen)
	}
}

func TestAlignIntraday_SortsUnorderedInput(t *testing.T) {
	points := AlignIntraday(payload("09:30,09:15,09:20", "3,1,2"))

	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].MinutesSinceOpen <= points[i-1].MinutesSinceOpen {
			t.Errorf("minutes not strictly increasing at %d: %d then %d",
				i, points[i-1].MinutesSinceOpen, points[i].MinutesSinceOpen)
		}
	}
	if points[0].Price != 1 || points[2].Price != 3 {
		t.Errorf("prices not reordered with timestamps: %+v", points)
	}
}

func TestAlignIntraday_SecondsTolerated(t *testing.T) {
	points := AlignIntraday(payload("09:15:30,10:15:00", "100,200"))

	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[1].MinutesSinceOpen != 60 {
		t.Errorf("minutes=%d, want 60", points[1].MinutesSinceOpen)
	}
	if points[0].Time != "09:15" {
		t.Errorf("time label=%q, want 09:15", points[0].Time)
	}
}

func TestAlignIntraday_MalformedInput(t *testing.T) {
	cases := []struct {
		name  string
		input *models.IntradaySeriesPayload
	}{
		{"nil payload", nil},
		{"empty strings", payload("", "")},
		{"garbage", payload("not-a-time", "not-a-number")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AlignIntraday(tc.input); len(got) != 0 {
				t.Errorf("got %d points, want empty", len(got))
			}
		})
	}
}

func TestSliceByPercent(t *testing.T) {
	points := make([]models.PricePoint, 10)
	for i := range points {
		points[i] = models.PricePoint{MinutesSinceOpen: i, Price: float64(i)}
	}

	cases := []struct {
		name      string
		lo, hi    float64
		wantFirst int
		wantLen   int
	}{
		{"full window", 0, 100, 0, 10},
		{"first half", 0, 50, 0, 5},
		{"second half", 50, 100, 5, 5},
		{"middle slice", 30, 70, 3, 4},
		{"clamped bounds", -10, 150, 0, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SliceByPercent(points, tc.lo, tc.hi)
			if len(got) != tc.wantLen {
				t.Fatalf("len=%d, want %d", len(got), tc.wantLen)
			}
			if got[0].MinutesSinceOpen != tc.wantFirst {
				t.Errorf("first minute=%d, want %d", got[0].MinutesSinceOpen, tc.wantFirst)
			}
		})
	}

	if got := SliceByPercent(points, 80, 20); got != nil {
		t.Errorf("inverted window: got %d points, want nil", len(got))
	}
	if got := SliceByPercent(nil, 0, 100); got != nil {
		t.Errorf("empty input: got %d points, want nil", len(got))
	}
}
