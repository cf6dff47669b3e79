// Package gann derives square-root support/resistance grids and the
// directional trading signal they imply.
package gann

import (
	"errors"
	"math"

	"github.com/derivs-back/pkg/models"
)

// ErrInvalidBasePrice is returned when the base price is non-finite or
// not positive. The calculator never substitutes a default.
var ErrInvalidBasePrice = errors.New("gann: base price must be finite and positive")

// Grid defaults
const (
	DefaultStep     = 0.125
	DefaultLevels   = 5
	DefaultDecimals = 2
)

// Options tunes the grid geometry. The zero value selects the defaults.
type Options struct {
	Step     float64
	Levels   int
	Decimals int
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.Levels <= 0 {
		o.Levels = DefaultLevels
	}
	if o.Decimals <= 0 {
		o.Decimals = DefaultDecimals
	}
	return o
}

// Compute derives the Gann square-root grid for a base price.
//
// The square root of the base is snapped down to the step grid; supports
// step down from there. Resistances are offset one extra step: R1 sits
// at baseGrid+2*step while S1 sits at baseGrid-step. The asymmetry is a
// fixed constant of the grid, kept for compatibility with the published
// level tables.
func Compute(basePrice float64, opts Options) (*models.GannLevelSet, error) {
	if math.IsNaN(basePrice) || math.IsInf(basePrice, 0) || basePrice <= 0 {
		return nil, ErrInvalidBasePrice
	}
	o := opts.withDefaults()

	root := math.Sqrt(basePrice)
	baseGrid := math.Floor(root/o.Step) * o.Step

	set := &models.GannLevelSet{
		BasePrice:   basePrice,
		Supports:    make([]models.GannLevel, 0, o.Levels),
		Resistances: make([]models.GannLevel, 0, o.Levels),
	}

	for i := 1; i <= o.Levels; i++ {
		v := baseGrid - float64(i)*o.Step
		set.Supports = append(set.Supports, models.GannLevel{
			Order: i,
			Value: roundTo(v*v, o.Decimals),
		})
	}
	for i := 2; i <= o.Levels+1; i++ {
		v := baseGrid + float64(i)*o.Step
		set.Resistances = append(set.Resistances, models.GannLevel{
			Order: i - 1,
			Value: roundTo(v*v, o.Decimals),
		})
	}

	return set, nil
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
