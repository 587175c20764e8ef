package advisor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/advisor"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
	"github.com/tmaynard/warcouncil/internal/scripting"
)

var (
	grass = &world.Terrain{ID: "grassland", MoveCost: 1, FoodBase: 2}
	sea   = &world.Terrain{ID: "ocean", MoveCost: 1, Ocean: true}
)

func testRegistry() *rules.Registry {
	units := []*rules.UnitType{
		{ID: "settlers", Class: rules.ClassLand, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 30, Upkeep: 1, Roles: []string{rules.RoleSettler, rules.RoleFounder}},
		{ID: "caravan", Class: rules.ClassLand, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 50, Roles: []string{rules.RoleHelper, rules.RoleTradeRoute}, Flags: []string{rules.FlagCaravan}},
		{ID: "galleon", Class: rules.ClassSea, HP: 20, Firepower: 1, MoveRate: 4, BuildCost: 60, Transport: 4, ReqTech: "sailing", Flags: []string{rules.FlagFerry}},
		{ID: "envoy", Class: rules.ClassLand, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 25, Flags: []string{rules.FlagDiplomat}},
	}
	buildings := []*rules.Building{
		{ID: "granary", Genus: rules.GenusNormal, Category: rules.CatGranary, BuildCost: 60, Upkeep: 1},
		{ID: "aqueduct", Genus: rules.GenusNormal, Category: rules.CatAqueduct, BuildCost: 60, Upkeep: 2, EffectValue: 8},
		{ID: "temple", Genus: rules.GenusNormal, Category: rules.CatHappiness, BuildCost: 40, Upkeep: 1, EffectValue: 3},
		{ID: "library", Genus: rules.GenusNormal, Category: rules.CatScience, BuildCost: 80, Upkeep: 1, EffectValue: 100},
		{ID: "market", Genus: rules.GenusNormal, Category: rules.CatEconomy, BuildCost: 80, EffectValue: 50},
		{ID: "shrine", Genus: rules.GenusNormal, Category: rules.CatHappiness, BuildCost: 40, ScoreHook: "score_shrine"},
		{ID: "colossus", Genus: rules.GenusWonder, Category: rules.CatWonderTrade, BuildCost: 200, EffectValue: 20},
		{ID: "greatlab", Genus: rules.GenusWonder, Category: rules.CatWonderLab, BuildCost: 300, EffectValue: 100},
		{ID: "part", Genus: rules.GenusSpacePart, Category: rules.CatSpacePart, BuildCost: 80, EffectValue: 35},
	}
	return rules.NewRegistry(units, buildings, rules.Constants{
		ShieldWeight: 17, TradeWeight: 12, FoodWeightBase: 19, AmortizeBase: 24, GameLossFactor: 1000,
	})
}

func testConfig() config.AdvisorConfig {
	return config.AdvisorConfig{
		BuyWantCap:        199,
		ExpansionPercent:  100,
		TradeSamePercent:  50,
		TradeCrossPercent: 100,
		HunterSearchTurns: 6,
	}
}

type fixture struct {
	state  *world.State
	engine *advisor.Engine
	player *world.Player
}

func newFixture(t *testing.T, hooks *scripting.Hooks) *fixture {
	t.Helper()
	m := world.NewMap(20, 20, grass)
	m.TileAt(world.Position{X: 0, Y: 0}).Terrain = sea
	m.AssignContinents()
	st := world.NewState(m)
	p := world.NewPlayer("p1", "Hellas")
	require.NoError(t, st.AddPlayer(p))
	e := advisor.New(st, testRegistry(), testConfig(), config.HandicapConfig{EasyDefenseWant: 40}, hooks, zap.NewNop())
	return &fixture{state: st, engine: e, player: p}
}

func (f *fixture) addCity(t *testing.T, id string, x, y int) *world.City {
	t.Helper()
	c := world.NewCity(id, id, "p1", world.Position{X: x, Y: y})
	c.Size = 4
	c.FoodSurplus = 2
	c.ShieldSurplus = 5
	c.BestTileValue = 5
	require.NoError(t, f.state.AddCity(c))
	return c
}

func TestEvalBuildings_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.TradeTotal = 12
	c.TaxTotal = 6
	c.ScienceTotal = 40
	c.Unhappy[world.StageWonder] = 2
	c.Happy[world.StageWonder] = 1

	f.engine.EvalBuildings(c)
	first := make(map[string]int, len(c.BuildingWant))
	for k, v := range c.BuildingWant {
		first[k] = v
	}
	f.engine.EvalBuildings(c)

	assert.Equal(t, first, c.BuildingWant,
		"re-evaluation over unchanged state must reproduce the same wants")
}

func TestEvalBuildings_WantsAreNeverNegative(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)

	rapid.Check(t, func(t *rapid.T) {
		c.Size = rapid.IntRange(1, 30).Draw(t, "size")
		c.FoodSurplus = rapid.IntRange(-5, 10).Draw(t, "food")
		c.ShieldSurplus = rapid.IntRange(-5, 60).Draw(t, "shields")
		c.TradeTotal = rapid.IntRange(0, 60).Draw(t, "trade")
		c.TaxTotal = rapid.IntRange(0, 40).Draw(t, "tax")
		c.ScienceTotal = rapid.IntRange(0, 40).Draw(t, "science")
		c.PollutionTotal = rapid.IntRange(0, 20).Draw(t, "pollution")
		c.Corruption = rapid.IntRange(0, 20).Draw(t, "corruption")
		c.Celebrating = rapid.Bool().Draw(t, "celebrating")
		c.Unhappy[world.StageWonder] = rapid.IntRange(0, 10).Draw(t, "unhappy")

		f.engine.EvalBuildings(c)
		for id, w := range c.BuildingWant {
			if w < 0 {
				t.Fatalf("building %q scored negative want %d", id, w)
			}
		}
	})
}

func TestEvalBuildings_CelebratingCitySuppressesAqueduct(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)

	f.engine.EvalBuildings(c)
	plain := c.BuildingWant["aqueduct"]
	require.Positive(t, plain, "a growing size-4 city should want its aqueduct")

	c.Celebrating = true
	f.engine.EvalBuildings(c)
	assert.Zero(t, c.BuildingWant["aqueduct"],
		"rapture growth makes the aqueduct pointless for now")
}

func TestEvalBuildings_AqueductUrgencyRisesNearThreshold(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5) // size 4, well below the threshold of 8

	f.engine.EvalBuildings(c)
	distant := c.BuildingWant["aqueduct"]
	require.Positive(t, distant)

	c.Size = 7 // one citizen short
	f.engine.EvalBuildings(c)
	urgent := c.BuildingWant["aqueduct"]
	assert.Greater(t, urgent, distant,
		"a city about to hit its size cap must want the aqueduct far more")

	c.Celebrating = true
	f.engine.EvalBuildings(c)
	assert.Zero(t, c.BuildingWant["aqueduct"],
		"rapture growth suppresses the urgency even at the cap")
}

func TestEvalBuildings_WonderLabSuppressesScienceBuildings(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.ScienceTotal = 40

	f.engine.EvalBuildings(c)
	require.Positive(t, c.BuildingWant["library"])

	c.Buildings["greatlab"] = true
	f.engine.EvalBuildings(c)
	assert.Zero(t, c.BuildingWant["library"],
		"a lab-equivalent wonder already covers the science concern")
}

func TestEvalBuildings_SpacePartIsUnconditional(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)

	f.engine.EvalBuildings(c)
	assert.Zero(t, c.BuildingWant["part"], "no quota, no desire")

	f.player.SpacePartQuota = 2
	f.engine.EvalBuildings(c)
	assert.Equal(t, 35, c.BuildingWant["part"],
		"quota parts carry their effect value verbatim, bypassing the massage")
}

func TestEvalBuildings_LuaHookOverridesCategoryScorer(t *testing.T) {
	hooks := scripting.NewHooks(zap.NewNop())
	defer hooks.Close()
	require.NoError(t, hooks.LoadString(`
function score_shrine(city)
	return city.size * 10
end
`))
	f := newFixture(t, hooks)
	c := f.addCity(t, "athens", 5, 5)

	f.engine.EvalBuildings(c)

	// size 4 * 10 = 40 raw, no upkeep, normalized by value 40.
	assert.Equal(t, 100, c.BuildingWant["shrine"])
}

func TestChooseBuild_WantIsCapped(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.SettlerWant = 10000

	got := f.engine.ChooseBuild(c)

	assert.Equal(t, world.ChoiceCivilianUnit, got.Kind)
	assert.Equal(t, "settlers", got.ID)
	assert.Equal(t, testConfig().BuyWantCap, got.Want)
}

func TestChooseBuild_WonderConstructionDampsSettlers(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.SettlerWant = 100

	plain := f.engine.ChooseBuild(c)
	require.Equal(t, 100, plain.Want)

	f.player.BuildingWonder = true
	damped := f.engine.ChooseBuild(c)
	assert.Equal(t, "settlers", damped.ID)
	assert.Equal(t, 20, damped.Want,
		"settler diversion shrinks fivefold while a wonder is under way")
}

func TestChooseBuild_NegativeFounderWantBecomesFerryRequest(t *testing.T) {
	f := newFixture(t, nil)
	f.player.Techs["sailing"] = true
	c := f.addCity(t, "piraeus", 1, 0) // adjacent to the ocean tile
	c.FounderWant = -50

	got := f.engine.ChooseBuild(c)

	assert.Equal(t, world.ChoiceCivilianUnit, got.Kind)
	assert.Equal(t, "galleon", got.ID)
	assert.Equal(t, 50, got.Want,
		"the blocked desire transfers to the transport at full magnitude")
}

func TestChooseBuild_FounderTransportUnavailableScoresNothing(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5) // landlocked: no galleon possible
	c.FounderWant = -50

	got := f.engine.ChooseBuild(c)

	// Nothing else scores, so the idle fallback kicks in.
	assert.Equal(t, "caravan", got.ID)
	assert.Equal(t, 1, got.Want)
}

func TestChooseBuild_WonderAssistPrefersCloserHelper(t *testing.T) {
	f := newFixture(t, nil)
	w := f.addCity(t, "delphi", 10, 10)
	w.Producing = world.Choice{Kind: world.ChoiceBuilding, ID: "colossus", Want: 80}
	w.BuildingWant = map[string]int{"colossus": 80}

	near := f.addCity(t, "near", 12, 10)
	far := f.addCity(t, "far", 18, 10)

	nearChoice := f.engine.ChooseBuild(near)
	farChoice := f.engine.ChooseBuild(far)

	require.Equal(t, "caravan", nearChoice.ID)
	require.Equal(t, "caravan", farChoice.ID)
	assert.Greater(t, nearChoice.Want, farChoice.Want,
		"assist desire must decay with travel lead time")
}

func TestChooseBuild_TradeNeedsReachableDestination(t *testing.T) {
	m := world.NewMap(20, 20, grass)
	for y := 0; y < 20; y++ {
		m.TileAt(world.Position{X: 10, Y: y}).Terrain = sea
	}
	m.AssignContinents()
	st := world.NewState(m)
	p := world.NewPlayer("p1", "Hellas")
	require.NoError(t, st.AddPlayer(p))
	e := advisor.New(st, testRegistry(), testConfig(), config.HandicapConfig{}, nil, zap.NewNop())

	home := world.NewCity("athens", "athens", "p1", world.Position{X: 3, Y: 3})
	home.TradeTotal = 10
	require.NoError(t, st.AddCity(home))
	rich := world.NewCity("tyre", "tyre", "p1", world.Position{X: 15, Y: 3})
	rich.TradeTotal = 60
	require.NoError(t, st.AddCity(rich))

	// Neither city has a port, so the rich city across the sea is out of
	// caravan reach and the landlocked city falls back to the idle build.
	got := e.ChooseBuild(home)
	assert.Equal(t, 1, got.Want)

	port := world.NewCity("piraeus", "piraeus", "p1", world.Position{X: 9, Y: 3})
	port.TradeTotal = 10
	require.NoError(t, st.AddCity(port))
	rich.Pos = world.Position{X: 11, Y: 3} // now coastal on the far shore

	got = e.ChooseBuild(port)
	assert.Equal(t, world.ChoiceCivilianUnit, got.Kind)
	assert.Equal(t, "caravan", got.ID)
	assert.Greater(t, got.Want, 1, "a sea route between two ports opens the trade")
}

func TestChooseBuild_IdleCityFallsBackToMinimalBuild(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)

	got := f.engine.ChooseBuild(c)

	assert.Equal(t, world.ChoiceCivilianUnit, got.Kind)
	assert.Equal(t, "caravan", got.ID)
	assert.Equal(t, 1, got.Want)
	assert.Equal(t, got, c.LastChoice)
}

func TestChooseBuild_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.TradeTotal = 12
	c.SettlerWant = 40
	f.engine.EvalBuildings(c)

	first := f.engine.ChooseBuild(c)
	second := f.engine.ChooseBuild(c)

	assert.Equal(t, first, second)
}

func TestRegisterScorer_ReplacesCategoryStrategy(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)

	f.engine.RegisterScorer(rules.CatGranary, advisor.ScorerFunc(
		func(_ *advisor.View, _ *rules.Building) advisor.Score {
			return advisor.Unconditional(42)
		}))
	f.engine.EvalBuildings(c)

	assert.Equal(t, 42, c.BuildingWant["granary"])
}

func TestBestBuilding_TiesKeepDeclarationOrder(t *testing.T) {
	f := newFixture(t, nil)
	c := f.addCity(t, "athens", 5, 5)
	c.BuildingWant = map[string]int{"temple": 30, "granary": 30}

	id, want, ok := f.engine.BestBuilding(c)

	require.True(t, ok)
	assert.Equal(t, "granary", id, "granary is declared before temple")
	assert.Equal(t, 30, want)
}
