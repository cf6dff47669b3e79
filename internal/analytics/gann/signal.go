package gann

import (
	"strconv"

	"github.com/derivs-back/pkg/models"
)

// tier is one rung of the ordered tier table the signal walks. Deeper
// tiers come first so the deepest breached level wins.
type tier struct {
	order int
	label string
	value float64
}

// DeriveSignal maps the current price onto a Gann grid and returns the
// directional signal with its target/stop-loss progression.
//
// The bearish branch triggers strictly below S1, the bullish branch
// strictly above R1; at the boundary values the state is neutral. Tiers
// whose level is undefined (fewer than five configured levels) are
// skipped, with the cascading target falling back to the nearest defined
// level. Pure function: recomputed on every tick, no state between calls.
func DeriveSignal(price float64, set *models.GannLevelSet) *models.SignalState {
	if set == nil || len(set.Supports) == 0 || len(set.Resistances) == 0 {
		return nil
	}

	s1, hasS1 := set.Support(1)
	r1, hasR1 := set.Resistance(1)

	switch {
	case hasS1 && price < s1:
		return bearishState(price, set)
	case hasR1 && price > r1:
		return bullishState(price, set)
	default:
		return neutralState(price, set)
	}
}

func bearishState(price float64, set *models.GannLevelSet) *models.SignalState {
	state := &models.SignalState{
		Price:  price,
		Signal: models.SignalPutBuy,
		Type:   models.TrendBearish,
	}

	tiers := supportTiers(set)

	// Deepest breached tier wins; S2..S5 breach on <=.
	matched := false
	for i, t := range tiers {
		if t.order == 1 || price > t.value {
			continue
		}
		state.TargetHit = t.label
		state.StopLoss = formatLevel(t.value)
		state.CurrentTarget = nextTarget(tiers, i)
		matched = true
		break
	}
	if !matched {
		// Only below S1: entry tier.
		s1, _ := set.Support(1)
		state.TargetHit = "Below S1"
		state.StopLoss = formatLevel(s1)
		state.CurrentTarget = nextTarget(tiers, len(tiers)-1)
	}

	for _, l := range set.Supports {
		status := models.StatusTarget
		switch {
		case l.Order == 1 && price < l.Value:
			status = models.StatusHit
		case l.Order == 1:
			status = models.StatusEntry
		case price <= l.Value:
			status = models.StatusHit
		}
		state.TargetsProgress = append(state.TargetsProgress, models.TargetProgress{
			Level:  "S" + strconv.Itoa(l.Order),
			Value:  l.Value,
			Status: status,
		})
	}

	return state
}

func bullishState(price float64, set *models.GannLevelSet) *models.SignalState {
	state := &models.SignalState{
		Price:  price,
		Signal: models.SignalCallBuy,
		Type:   models.TrendBullish,
	}

	tiers := resistanceTiers(set)

	// Highest breached tier wins; R2..R5 breach on >=.
	matched := false
	for i, t := range tiers {
		if t.order == 1 || price < t.value {
			continue
		}
		state.TargetHit = t.label
		state.StopLoss = formatLevel(t.value)
		state.CurrentTarget = nextTarget(tiers, i)
		matched = true
		break
	}
	if !matched {
		r1, _ := set.Resistance(1)
		state.TargetHit = "Above R1"
		state.StopLoss = formatLevel(r1)
		state.CurrentTarget = nextTarget(tiers, len(tiers)-1)
	}

	for _, l := range set.Resistances {
		status := models.StatusTarget
		switch {
		case l.Order == 1 && price > l.Value:
			status = models.StatusHit
		case l.Order == 1:
			status = models.StatusEntry
		case price >= l.Value:
			status = models.StatusHit
		}
		state.TargetsProgress = append(state.TargetsProgress, models.TargetProgress{
			Level:  "R" + strconv.Itoa(l.Order),
			Value:  l.Value,
			Status: status,
		})
	}

	return state
}

func neutralState(price float64, set *models.GannLevelSet) *models.SignalState {
	state := &models.SignalState{
		Price:         price,
		Signal:        models.SignalWait,
		Type:          models.TrendSideways,
		CurrentTarget: models.NotApplicable,
		StopLoss:      models.NotApplicable,
		TargetHit:     models.NoTargetHit,
	}

	if s1, ok := set.Support(1); ok {
		state.TargetsProgress = append(state.TargetsProgress, models.TargetProgress{
			Level:  "S1",
			Value:  s1,
			Status: models.StatusSupport,
		})
	}
	if r1, ok := set.Resistance(1); ok {
		state.TargetsProgress = append(state.TargetsProgress, models.TargetProgress{
			Level:  "R1",
			Value:  r1,
			Status: models.StatusResistance,
		})
	}

	return state
}

// supportTiers returns the defined support tiers deepest-first
// (S5, S4, ..., S1).
func supportTiers(set *models.GannLevelSet) []tier {
	tiers := make([]tier, 0, len(set.Supports))
	for i := len(set.Supports) - 1; i >= 0; i-- {
		l := set.Supports[i]
		tiers = append(tiers, tier{order: l.Order, label: "S" + strconv.Itoa(l.Order), value: l.Value})
	}
	return tiers
}

// resistanceTiers returns the defined resistance tiers highest-first
// (R5, R4, ..., R1).
func resistanceTiers(set *models.GannLevelSet) []tier {
	tiers := make([]tier, 0, len(set.Resistances))
	for i := len(set.Resistances) - 1; i >= 0; i-- {
		l := set.Resistances[i]
		tiers = append(tiers, tier{order: l.Order, label: "R" + strconv.Itoa(l.Order), value: l.Value})
	}
	return tiers
}

// nextTarget resolves the cascading target for the tier at index i: the
// nearest deeper defined tier, or "All Targets Hit" when the deepest
// tier has been taken out.
func nextTarget(tiers []tier, i int) string {
	if i <= 0 {
		return models.AllTargetsHit
	}
	return formatLevel(tiers[i-1].value)
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
