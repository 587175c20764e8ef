package advisor

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// EvalBuildings computes a non-negative want for every improvement the city
// could build and stores it into city.BuildingWant. Pure function of the
// current state plus ruleset constants; calling it twice over unchanged
// input yields identical output.
//
// Postcondition: every BuildingWant value is >= 0; buildings that are not
// currently legal stay at 0.
func (e *Engine) EvalBuildings(city *world.City) {
	v := e.viewOf(city)
	if v == nil {
		return
	}
	want := make(map[string]int, len(city.BuildingWant))

	for _, b := range e.rules.Buildings() {
		if !e.rules.CanBuildImprovement(v, b) {
			continue
		}
		var w int
		if b.IsWonder() {
			w = e.massageWonder(v, b, e.scoreFor(v, b))
		} else {
			w = e.massageOrdinary(v, b, e.scoreFor(v, b))
		}
		if w < 0 {
			w = 0
		}
		want[b.ID] = w
		if w > 0 {
			e.logger.Debug("building want",
				zap.String("city", city.Name),
				zap.String("building", b.ID),
				zap.Int("want", w),
			)
		}
	}
	city.BuildingWant = want
}

// massageOrdinary nets an ordinary raw score against upkeep and normalizes
// it by the building's monetary value. Unconditional scores bypass the
// massage entirely.
func (e *Engine) massageOrdinary(v *View, b *rules.Building, s Score) int {
	switch s.Kind {
	case KindUnconditional:
		return s.Value
	case KindScored:
		raw := s.Value - b.Upkeep*e.rules.Constants().TradeWeight
		div := b.Value
		if div < 1 {
			div = 1
		}
		return raw * 100 / div
	default:
		return 0
	}
}

// massageWonder applies only the small-production penalty: a city producing
// fewer than 50 shields cannot realistically complete a wonder, so its
// desire shrinks proportionally.
func (e *Engine) massageWonder(v *View, b *rules.Building, s Score) int {
	w := s.Value
	if s.Kind == KindUnconditional {
		return w
	}
	if tprod := v.city.ShieldSurplus; tprod < 50 && w > 0 {
		w = w * 100 / (50 - tprod) / 100
	}
	return w
}

// BestBuilding returns the building id with the highest want for the city,
// or false when every want is zero.
//
// Postcondition: ties are broken by ruleset declaration order.
func (e *Engine) BestBuilding(city *world.City) (string, int, bool) {
	bestID, bestWant := "", 0
	for _, b := range e.rules.Buildings() {
		if w := city.BuildingWant[b.ID]; w > bestWant {
			bestID, bestWant = b.ID, w
		}
	}
	return bestID, bestWant, bestID != ""
}
