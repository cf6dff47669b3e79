// Package maxpain derives bias, volatility and OI-concentration metrics
// from an aligned max-pain/spot time series.
package maxpain

import (
	"math"

	"github.com/derivs-back/pkg/models"
)

// DefaultBiasBand is the half-width, in index points, of the neutral
// band around the max-pain level. A spot within this distance of max
// pain is treated as "at" max pain.
const DefaultBiasBand = 10.0

// Analyze derives insights from a window of max-pain samples plus the
// current spot price, using the default bias band. The window is
// whatever slice the caller selected; the last sample is taken as the
// latest observation. Empty input yields nil, never an error.
func Analyze(samples []models.MaxPainSample, currentSpot float64) *models.MaxPainInsights {
	return AnalyzeWithBand(samples, currentSpot, DefaultBiasBand)
}

// AnalyzeWithBand is Analyze with a caller-tuned neutral band.
func AnalyzeWithBand(samples []models.MaxPainSample, currentSpot float64, biasBand float64) *models.MaxPainInsights {
	if len(samples) == 0 {
		return nil
	}
	if biasBand <= 0 {
		biasBand = DefaultBiasBand
	}

	latest := samples[len(samples)-1]
	distance := math.Round(currentSpot - latest.MaxPain)

	return &models.MaxPainInsights{
		DistanceFromSpot: distance,
		Bias:             bias(distance, biasBand),
		Volatility:       rangeOf(samples),
		HighestOIStrike:  modalMaxPain(samples),
	}
}

func bias(distance, band float64) string {
	switch {
	case distance > band:
		return models.BiasBullish
	case distance < -band:
		return models.BiasBearish
	default:
		return models.BiasNeutral
	}
}

// rangeOf returns the spread of max-pain values across the window, in
// points.
func rangeOf(samples []models.MaxPainSample) float64 {
	min := samples[0].MaxPain
	max := samples[0].MaxPain
	for _, s := range samples[1:] {
		if s.MaxPain < min {
			min = s.MaxPain
		}
		if s.MaxPain > max {
			max = s.MaxPain
		}
	}
	return max - min
}

// modalMaxPain returns the most frequently observed max-pain level in
// the window. Ties break toward the level observed most recently, so a
// fresh migration of max pain is preferred over an equally common stale
// one.
func modalMaxPain(samples []models.MaxPainSample) float64 {
	counts := make(map[float64]int, len(samples))
	lastSeen := make(map[float64]int, len(samples))
	for i, s := range samples {
		counts[s.MaxPain]++
		lastSeen[s.MaxPain] = i
	}

	best := samples[0].MaxPain
	for level, n := range counts {
		switch {
		case n > counts[best]:
			best = level
		case n == counts[best] && lastSeen[level] > lastSeen[best]:
			best = level
		}
	}
	return best
}
