package advisor

import (
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
	"github.com/tmaynard/warcouncil/internal/scripting"
)

// Scorer computes the raw desirability of one building for one city.
// Raw scores live on a trade-point-equivalent scale; the engine's final
// massage converts them into wants.
type Scorer interface {
	RawScore(v *View, b *rules.Building) Score
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(v *View, b *rules.Building) Score

// RawScore calls f.
func (f ScorerFunc) RawScore(v *View, b *rules.Building) Score { return f(v, b) }

// registerDefaults binds the stock scoring strategy for every building
// category the ruleset format knows.
func (e *Engine) registerDefaults() {
	for cat, fn := range map[string]ScorerFunc{
		rules.CatGranary:     scoreGranary,
		rules.CatAqueduct:    scoreAqueduct,
		rules.CatHarbor:      scoreHarbor,
		rules.CatSupermarket: scoreSupermarket,
		rules.CatScience:     scoreScience,
		rules.CatEconomy:     scoreEconomy,
		rules.CatHappiness:   scoreHappiness,
		rules.CatCourthouse:  scoreCourthouse,
		rules.CatProduction:  scoreProduction,
		rules.CatPollution:   scorePollution,
		rules.CatDefenseLand: scoreDefenseLand,
		rules.CatDefenseSea:  scoreDefenseSea,
		rules.CatDefenseAir:  scoreDefenseAir,
		rules.CatDefenseNuke: scoreDefenseNuke,
		rules.CatBarracks:    scoreBarracks,
		rules.CatSpacePart:   scoreSpacePart,

		rules.CatWonderUpkeep:     scoreWonderUpkeep,
		rules.CatWonderFreeTech:   scoreWonderFreeTech,
		rules.CatWonderLeadership: scoreWonderLeadership,
		rules.CatWonderHappy:      scoreWonderHappy,
		rules.CatWonderScience:    scoreWonderScience,
		rules.CatWonderLab:        scoreWonderLab,
		rules.CatWonderTrade:      scoreWonderTrade,
		rules.CatWonderGrowth:     scoreWonderGrowth,
	} {
		e.registry[cat] = fn
	}
}

// scoreFor resolves the scorer for b: an explicit Lua hook first, then the
// registered category strategy. Unknown categories score zero.
func (e *Engine) scoreFor(v *View, b *rules.Building) Score {
	if b.ScoreHook != "" && e.hooks != nil {
		if n, ok := e.hooks.Score(b.ScoreHook, scripting.CitySnapshot{
			Size:           v.city.Size,
			FoodSurplus:    v.city.FoodSurplus,
			ShieldSurplus:  v.city.ShieldSurplus,
			TradeTotal:     v.city.TradeTotal,
			PollutionTotal: v.city.PollutionTotal,
			Unhappy:        v.city.UnhappyCitizens(),
			Celebrating:    v.city.Celebrating,
		}); ok {
			return Scored(n)
		}
	}
	if s, ok := e.registry[b.Category]; ok {
		return s.RawScore(v, b)
	}
	return Scored(0)
}

// --- Growth ---

func scoreGranary(v *View, b *rules.Building) Score {
	c := v.constants()
	return Scored(c.FoodWeight(v.city.Size) * max(0, v.city.FoodSurplus))
}

// scoreAqueduct prices all size-threshold growth buildings (aqueduct,
// sewer). Urgency is inverse to the turns left before the city hits the
// threshold. A celebrating city is already growing through rapture, so
// rushing the building is actively discouraged.
func scoreAqueduct(v *View, b *rules.Building) Score {
	threshold := b.EffectValue
	if threshold <= 0 {
		threshold = 8
	}
	if v.city.Size >= threshold && v.city.FoodSurplus <= 0 {
		return Scored(0)
	}
	turns := v.city.TurnsToSize(threshold)
	raw := v.constants().FoodWeight(v.city.Size) * 81 / turns
	if v.city.Celebrating {
		raw = -raw
	}
	return Scored(raw)
}

func scoreHarbor(v *View, b *rules.Building) Score {
	return Scored(v.city.WorkedOceanTiles * max(0, v.city.FoodSurplus) * 2)
}

func scoreSupermarket(v *View, b *rules.Building) Score {
	return Scored(v.city.WorkedFarmTiles * max(0, v.city.FoodSurplus) * 2)
}

// --- Science and economy ---

func scoreScience(v *View, b *rules.Building) Score {
	if v.hasBuildingOfCategory(rules.CatWonderLab) {
		return Scored(0)
	}
	return Scored(v.city.ScienceTotal * b.EffectValue / 100 / 2)
}

func scoreEconomy(v *View, b *rules.Building) Score {
	base := v.city.TaxTotal + v.city.Taxman*v.city.BestTileValue
	return Scored(base * b.EffectValue / 100)
}

// --- Happiness ---

func scoreHappiness(v *View, b *rules.Building) Score {
	return Scored(v.HappinessValue(b.EffectValue))
}

// scoreCourthouse scores on corruption reduction when the government has no
// inherent corruption tolerance, otherwise on its unhappiness relief.
func scoreCourthouse(v *View, b *rules.Building) Score {
	if v.player.GovCorruption == 0 {
		return Scored(v.city.Corruption * v.constants().TradeWeight / 4)
	}
	return Scored(v.HappinessValue(b.EffectValue))
}

// --- Production and pollution ---

func scoreProduction(v *View, b *rules.Building) Score {
	c := v.constants()
	bonus := v.city.ShieldSurplus * b.EffectValue / 100
	return Scored(bonus*c.ShieldWeight/8 - pollutionCost(v, bonus))
}

// pollutionCost amortizes the current plus projected pollution burden of
// extra shield output, using the same primitive as gold-buy costs.
func pollutionCost(v *View, extraShields int) int {
	pol := v.city.PollutionTotal
	if pol < 1 {
		pol = 1
	}
	projected := pol + extraShields/4
	return Amortize(projected*8, 12, v.constants().AmortizeBase)
}

func scorePollution(v *View, b *rules.Building) Score {
	reduced := v.city.PollutionTotal * b.EffectValue / 100
	return Scored(Amortize(reduced*8, 4, v.constants().AmortizeBase))
}

// --- Defense ---

// defenseWant converts a threat level into a raw score, honoring the
// easy-mode flat override.
func defenseWant(v *View, threatened bool, level int, pct int) Score {
	if v.player.EasyMode {
		return Scored(v.e.handicap.EasyDefenseWant)
	}
	if !threatened {
		return Scored(0)
	}
	base := v.city.Size*4 + level*2
	return Scored(base * pct / 100)
}

func scoreDefenseLand(v *View, b *rules.Building) Score {
	th := v.player.Threats
	return defenseWant(v, th.Continent[v.continent()], th.Invasion, b.EffectValue)
}

func scoreDefenseSea(v *View, b *rules.Building) Score {
	th := v.player.Threats
	return defenseWant(v, th.Sea > 0 && v.Coastal(), th.Sea, b.EffectValue)
}

func scoreDefenseAir(v *View, b *rules.Building) Score {
	th := v.player.Threats
	return defenseWant(v, th.Air > 0, th.Air, b.EffectValue)
}

func scoreDefenseNuke(v *View, b *rules.Building) Score {
	th := v.player.Threats
	level := max(th.Nuclear, th.Missile)
	return defenseWant(v, level > 0, level, b.EffectValue)
}

// --- Military support ---

// scoreBarracks scores on the fraction of citywide shield production
// currently devoted to military or wonder-helper units. The fraction is a
// fresh read over the full city list, so evaluation order cannot skew it.
func scoreBarracks(v *View, b *rules.Building) Score {
	mil, total := 0, 0
	for _, c := range v.e.state.CitiesOf(v.player.ID) {
		total += max(0, c.ShieldSurplus)
		if v.militaryProduction(c.Producing) {
			mil += max(0, c.ShieldSurplus)
		}
	}
	if total < 1 {
		total = 1
	}
	raw := v.constants().ShieldWeight * v.city.ShieldSurplus * mil / total / 4
	return Scored(raw * b.EffectValue / 100)
}

// militaryProduction reports whether a production target is a combat unit
// or a wonder-helper.
func (v *View) militaryProduction(ch world.Choice) bool {
	switch ch.Kind {
	case world.ChoiceAttacker, world.ChoiceDefender:
		return true
	case world.ChoiceCivilianUnit:
		ut, ok := v.e.rules.UnitTypeByID(ch.ID)
		return ok && ut.HasRole(rules.RoleHelper)
	default:
		return false
	}
}

// --- Spaceship ---

// scoreSpacePart treats remaining-quota parts as unconditionally desired:
// the want bypasses the upkeep/value massage entirely.
func scoreSpacePart(v *View, b *rules.Building) Score {
	if v.player.SpacePartQuota <= 0 {
		return Scored(0)
	}
	want := b.EffectValue
	if want <= 0 {
		want = 35
	}
	return Unconditional(want)
}

// --- Wonders ---

func scoreWonderUpkeep(v *View, b *rules.Building) Score {
	n := 0
	for id := range v.city.Buildings {
		if bld, ok := v.e.rules.BuildingByID(id); ok && bld.Upkeep == 1 {
			n++
		}
	}
	return Scored(v.city.TradeTotal * n)
}

func scoreWonderFreeTech(v *View, b *rules.Building) Score {
	c := v.constants()
	return Scored(v.player.ResearchCost * c.TradeWeight / 8)
}

// scoreWonderLeadership scores as the largest upgrade price saved across
// the owner's units: the gap between each unit's type and the best hunter
// type the ruleset offers.
func scoreWonderLeadership(v *View, b *rules.Building) Score {
	best, ok := v.e.rules.BestWithRole(rules.RoleHunter, v)
	if !ok {
		return Scored(0)
	}
	saved := 0
	for _, u := range v.e.state.UnitsOf(v.player.ID) {
		ut, ok := v.e.rules.UnitTypeByID(u.TypeID)
		if !ok || !ut.HasRole(rules.RoleHunter) {
			continue
		}
		if d := (best.BuildCost - ut.BuildCost) * 2; d > saved {
			saved = d
		}
	}
	return Scored(saved)
}

func scoreWonderHappy(v *View, b *rules.Building) Score {
	cities := len(v.e.state.CitiesOf(v.player.ID))
	return Scored(v.HappinessValue(b.EffectValue) * cities / 2)
}

func scoreWonderScience(v *View, b *rules.Building) Score {
	total := 0
	for _, c := range v.e.state.CitiesOf(v.player.ID) {
		total += c.ScienceTotal
	}
	return Scored(total * b.EffectValue / 100)
}

func scoreWonderLab(v *View, b *rules.Building) Score {
	return Scored(v.city.ScienceTotal * b.EffectValue / 100)
}

func scoreWonderTrade(v *View, b *rules.Building) Score {
	return Scored(v.city.TradeTotal * b.EffectValue / 100 * 2)
}

func scoreWonderGrowth(v *View, b *rules.Building) Score {
	c := v.constants()
	total := 0
	for _, city := range v.e.state.CitiesOf(v.player.ID) {
		total += c.FoodWeight(city.Size) * max(0, city.FoodSurplus)
	}
	return Scored(total / 2)
}
