package advisor

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// ChooseBuild merges the sub-advisors into the single best build decision
// for the city this turn and caches it on the city. Merge order is settler,
// founder, wonder-assist, building, trade-route; a later advisor replaces
// the running choice only when strictly better.
//
// Postcondition: the returned Choice's want is capped at the configured
// buy-want cap; an all-zero result falls back to a minimal civilian build
// so the city never idles.
func (e *Engine) ChooseBuild(city *world.City) world.Choice {
	v := e.viewOf(city)
	if v == nil {
		return world.Choice{}
	}

	choice := world.Choice{}
	choice.CopyIfBetter(e.settlerChoice(v))
	choice.CopyIfBetter(e.founderChoice(v))
	choice.CopyIfBetter(e.wonderAssistChoice(v))

	if id, w, ok := e.BestBuilding(city); ok {
		choice.CopyIfBetter(world.Choice{Kind: world.ChoiceBuilding, ID: id, Want: w})
	}

	choice.CopyIfBetter(e.tradeRouteChoice(v))

	if choice.Want > e.cfg.BuyWantCap {
		choice.Want = e.cfg.BuyWantCap
	}
	if choice.Kind == world.ChoiceNone {
		choice = e.fallbackChoice(v)
	}

	e.logger.Debug("build choice",
		zap.String("city", city.Name),
		zap.Int("kind", int(choice.Kind)),
		zap.String("id", choice.ID),
		zap.Int("want", choice.Want),
	)
	city.LastChoice = choice
	return choice
}

// settlerChoice converts the externally computed settler want into a unit
// request, gated on the food surplus covering the unit's upkeep and damped
// while a wonder is under construction so shields are not diverted.
func (e *Engine) settlerChoice(v *View) world.Choice {
	if v.city.SettlerWant <= 0 {
		return world.Choice{}
	}
	ut, ok := e.rules.BestWithRole(rules.RoleSettler, v)
	if !ok || v.city.FoodSurplus < ut.Upkeep {
		return world.Choice{}
	}
	want := v.city.SettlerWant * e.cfg.ExpansionPercent / 100
	if v.player.BuildingWonder {
		want /= 5
	}
	return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: want}
}

// founderChoice is the settler shape plus the expansionist trait multiplier
// and the max-cities suppression. A negative founder want is the
// needs-transport signal from the expansion subsystem: the desire is kept
// but redirected to a ferry of equal magnitude.
func (e *Engine) founderChoice(v *View) world.Choice {
	fw := founderScore(v.city.FounderWant)
	if fw.Kind == KindNeedsTransport {
		if ut, ok := e.bestFerry(v); ok {
			return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: fw.Value}
		}
		return world.Choice{}
	}
	if fw.Value <= 0 {
		return world.Choice{}
	}
	if maxCities := e.rules.Constants().MaxCities; maxCities > 0 &&
		len(e.state.CitiesOf(v.player.ID)) >= maxCities {
		return world.Choice{}
	}
	ut, ok := e.rules.BestWithRole(rules.RoleFounder, v)
	if !ok || v.city.FoodSurplus < ut.Upkeep {
		return world.Choice{}
	}
	want := fw.Value * e.cfg.ExpansionPercent / 100 * v.player.ExpansionistTrait / 100
	return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: want}
}

// founderScore lifts the external subsystem's sign-encoded founder want
// into a tagged score at the boundary.
func founderScore(fw int) Score {
	if fw < 0 {
		return NeedsTransport(-fw)
	}
	return Scored(fw)
}

func (e *Engine) bestFerry(v *View) (*rules.UnitType, bool) {
	var best *rules.UnitType
	for _, ut := range e.rules.UnitTypes() {
		if !ut.HasFlag(rules.FlagFerry) || !e.rules.CanBuildUnit(v, ut) {
			continue
		}
		if best == nil || ut.Transport > best.Transport {
			best = ut
		}
	}
	return best, best != nil
}

// wonderAssistChoice evaluates sending a caravan-equivalent to another city
// on the same landmass that is building a wonder. When no helper type is
// buildable yet, the desire is redirected into research priority for its
// prerequisite instead.
func (e *Engine) wonderAssistChoice(v *View) world.Choice {
	helpers := e.rules.UnitsWithRole(rules.RoleHelper)
	if len(helpers) == 0 {
		return world.Choice{}
	}

	cont := v.continent()
	pledged := e.pledgedCaravans(v, cont)

	best := world.Choice{}
	bestWant := 0
	v.city.DistToWonderCity = 0
	for _, other := range e.state.CitiesOf(v.player.ID) {
		if other.ID == v.city.ID {
			continue
		}
		if e.state.Map.TileAt(other.Pos).Continent != cont {
			continue
		}
		if other.Producing.Kind != world.ChoiceBuilding {
			continue
		}
		b, ok := e.rules.BuildingByID(other.Producing.ID)
		if !ok || !b.IsWonder() {
			continue
		}
		helper := helpers[0]
		remaining := b.BuildCost - other.ShieldStock - pledged*helper.BuildCost
		if remaining <= 0 {
			continue
		}
		base := other.BuildingWant[b.ID]
		if base <= 0 {
			continue
		}
		// Discount by travel lead time: one amortization step per move
		// point of distance.
		moveRate := helper.MoveRate
		if moveRate < 1 {
			moveRate = 1
		}
		dist := world.Distance(v.city.Pos, other.Pos)
		turns := dist / moveRate
		want := Amortize(base, turns, e.rules.Constants().AmortizeBase)
		if want > bestWant {
			bestWant = want
			best = world.Choice{Kind: world.ChoiceCivilianUnit, ID: helper.ID, Want: want}
			v.city.DistToWonderCity = dist
		}
	}
	if best.Kind == world.ChoiceNone {
		return world.Choice{}
	}
	helper := helpers[0]
	if !e.rules.CanBuildUnit(v, helper) {
		// Cannot build the helper yet: being unable to assist still
		// influences what to research next.
		v.player.BumpTechDesire(helper.ReqTech, bestWant/4)
		return world.Choice{}
	}
	return best
}

// pledgedCaravans counts caravan-flagged units and under-construction
// helpers of the player on the given continent.
func (e *Engine) pledgedCaravans(v *View, cont int) int {
	n := 0
	for _, u := range e.state.UnitsOf(v.player.ID) {
		ut, ok := e.rules.UnitTypeByID(u.TypeID)
		if !ok || !ut.HasFlag(rules.FlagCaravan) {
			continue
		}
		if e.state.Map.TileAt(u.Pos).Continent == cont {
			n++
		}
	}
	for _, c := range e.state.CitiesOf(v.player.ID) {
		if c.Producing.Kind != world.ChoiceCivilianUnit {
			continue
		}
		if ut, ok := e.rules.UnitTypeByID(c.Producing.ID); ok && ut.HasRole(rules.RoleHelper) &&
			e.state.Map.TileAt(c.Pos).Continent == cont {
			n++
		}
	}
	return n
}

// tradeRouteChoice estimates the one-time income of establishing a trade
// route from this city to the most profitable destination.
func (e *Engine) tradeRouteChoice(v *View) world.Choice {
	ut, ok := e.rules.BestWithRole(rules.RoleTradeRoute, v)
	if !ok {
		return world.Choice{}
	}
	cont := v.continent()
	bestIncome := 0
	for _, dest := range e.state.Cities() {
		if dest.ID == v.city.ID {
			continue
		}
		pct := e.cfg.TradeCrossPercent
		if e.state.Map.TileAt(dest.Pos).Continent == cont {
			// Continents are land-connected components, so a shared id
			// means an overland caravan route exists.
			pct = e.cfg.TradeSamePercent
		} else if !e.state.Map.IsCoastal(v.city.Pos) || !e.state.Map.IsCoastal(dest.Pos) {
			// Cross-continent trade needs a sea route, which needs a
			// port on both ends.
			continue
		}
		income := (v.city.TradeTotal + dest.TradeTotal + 4) * pct / 100 / 2
		if income > bestIncome {
			bestIncome = income
		}
	}
	if bestIncome == 0 {
		return world.Choice{}
	}
	want := bestIncome*v.player.TraderTrait/100 - ut.BuildCost/10
	if e.nationalScience(v.player.ID) < 3 {
		// Deadlock breaker: trade income is the only way out of a
		// starved research economy.
		want *= 3
	}
	if v.city.TradeRoutes == 0 {
		want += 8
	}
	if want <= 0 {
		return world.Choice{}
	}
	return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: want}
}

func (e *Engine) nationalScience(playerID string) int {
	total := 0
	for _, c := range e.state.CitiesOf(playerID) {
		total += c.ScienceTotal
	}
	return total
}

// fallbackChoice keeps an otherwise-idle city busy with whatever minimal
// civilian build is available: a trade-route unit, then a diplomat.
func (e *Engine) fallbackChoice(v *View) world.Choice {
	if ut, ok := e.rules.BestWithRole(rules.RoleTradeRoute, v); ok {
		return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: 1}
	}
	for _, ut := range e.rules.UnitTypes() {
		if ut.HasFlag(rules.FlagDiplomat) && e.rules.CanBuildUnit(v, ut) {
			return world.Choice{Kind: world.ChoiceCivilianUnit, ID: ut.ID, Want: 1}
		}
	}
	return world.Choice{}
}
