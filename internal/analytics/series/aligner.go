// Package series parses delimiter-encoded vendor time series into
// ordered, minute-resolution samples. Every consumer of intraday vendor
// payloads goes through this package.
package series

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/derivs-back/pkg/models"
)

// NSE cash-market open, normalized to minute 0.
const (
	OpenHour   = 9
	OpenMinute = 15
)

// AlignIntraday parses a vendor intraday payload (comma-joined parallel
// timestamp and price strings) into ordered price points.
//
// Elements that fail to parse, or whose paired value is missing, are
// dropped rather than zero-filled. Pre-market samples (before 09:15) are
// dropped as noise. The result is sorted ascending by minutes since open
// regardless of upstream order. Malformed input yields an empty slice,
// never an error.
func AlignIntraday(payload *models.IntradaySeriesPayload) []models.PricePoint {
	if payload == nil {
		return nil
	}

	times := strings.Split(payload.CreatedAt, ",")
	prices := strings.Split(payload.SpotPrice, ",")

	// Elements beyond the shorter side have no pair and are dropped.
	n := len(times)
	if len(prices) < n {
		n = len(prices)
	}

	points := make([]models.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		ts := strings.TrimSpace(times[i])
		price, err := strconv.ParseFloat(strings.TrimSpace(prices[i]), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}

		minutes, ok := minutesSinceOpen(ts)
		if !ok || minutes < 0 {
			continue
		}

		points = append(points, models.PricePoint{
			MinutesSinceOpen: minutes,
			Time:             clockLabel(ts),
			Price:            price,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].MinutesSinceOpen < points[j].MinutesSinceOpen
	})

	return points
}

// SliceByPercent returns the [lo,hi] percentage window of an aligned
// series: points[floor(len*lo/100) : ceil(len*hi/100)]. Bounds are
// clamped to [0,100]; an inverted window yields an empty slice.
func SliceByPercent(points []models.PricePoint, lo, hi float64) []models.PricePoint {
	if len(points) == 0 {
		return nil
	}
	lo = clampPercent(lo)
	hi = clampPercent(hi)
	if lo > hi {
		return nil
	}

	n := float64(len(points))
	start := int(math.Floor(n * lo / 100))
	end := int(math.Ceil(n * hi / 100))
	if end > len(points) {
		end = len(points)
	}
	if start >= end {
		return nil
	}
	return points[start:end]
}

// minutesSinceOpen parses an HH:MM[:SS] timestamp and normalizes it
// against market open. Returns false for unparseable timestamps.
func minutesSinceOpen(ts string) (int, bool) {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return (hour-OpenHour)*60 + (minute - OpenMinute), true
}

// clockLabel trims a timestamp down to HH:MM.
func clockLabel(ts string) string {
	parts := strings.Split(ts, ":")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]) + ":" + strings.TrimSpace(parts[1])
	}
	return ts
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
