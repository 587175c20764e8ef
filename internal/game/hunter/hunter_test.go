package hunter_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/hunter"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

var (
	grass    = &world.Terrain{ID: "grassland", MoveCost: 1, FoodBase: 2}
	mountain = &world.Terrain{ID: "mountains", MoveCost: 9}
)

func testRegistry() *rules.Registry {
	units := []*rules.UnitType{
		{ID: "lancer", Class: rules.ClassLand, Attack: 4, Defense: 2, HP: 10, Firepower: 1, MoveRate: 2, BuildCost: 20, Roles: []string{rules.RoleHunter}},
		{ID: "wagon", Class: rules.ClassLand, Defense: 1, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 40, Transport: 2},
		{ID: "scout", Class: rules.ClassLand, Defense: 1, HP: 10, Firepower: 1, MoveRate: 3, BuildCost: 30, Transport: 1},
		{ID: "king", Class: rules.ClassLand, Defense: 1, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 10, Flags: []string{rules.FlagGameLoss}},
		{ID: "envoy", Class: rules.ClassLand, HP: 10, Firepower: 1, MoveRate: 1, BuildCost: 5, Flags: []string{rules.FlagDiplomat}},
		{ID: "guard", Class: rules.ClassLand, Defense: 50, HP: 20, Firepower: 1, MoveRate: 1, BuildCost: 60},
		{ID: "rocket", Class: rules.ClassAir, Attack: 8, HP: 5, Firepower: 1, MoveRate: 8, BuildCost: 30, Flags: []string{rules.FlagMissile}},
	}
	return rules.NewRegistry(units, nil, rules.Constants{
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

// scriptedExec is a deterministic stand-in for the combat engine. Movement
// walks one diagonal-capable step and spends a full move point; attacks
// optionally destroy the whole defending stack.
type scriptedExec struct {
	state        *world.State
	attacks      []world.Position
	killOnAttack bool
	killAttacker bool
}

func (e *scriptedExec) MoveStep(u *world.Unit, to world.Position) bool {
	if u.MovesLeft <= 0 || u.Pos == to {
		return false
	}
	next := u.Pos
	if to.X > next.X {
		next.X++
	} else if to.X < next.X {
		next.X--
	}
	if to.Y > next.Y {
		next.Y++
	} else if to.Y < next.Y {
		next.Y--
	}
	u.Pos = next
	u.MovesLeft -= world.MoveCostBase
	return true
}

func (e *scriptedExec) Attack(u *world.Unit, pos world.Position) {
	e.attacks = append(e.attacks, pos)
	if e.killAttacker {
		e.state.RemoveUnit(u.ID)
		return
	}
	if !e.killOnAttack {
		return
	}
	var ids []string
	for _, v := range e.state.UnitsAt(pos) {
		ids = append(ids, v.ID)
	}
	for _, id := range ids {
		e.state.RemoveUnit(id)
	}
}

type fixture struct {
	state   *world.State
	exec    *scriptedExec
	manager *hunter.Manager
	us      *world.Player
	them    *world.Player
}

// testingT is the overlap of *testing.T and *rapid.T the fixture needs.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

func newFixture(t testingT) *fixture {
	t.Helper()
	st := world.NewState(world.NewMap(16, 16, grass))
	us := world.NewPlayer("p1", "Hellas")
	them := world.NewPlayer("p2", "Persia")
	require.NoError(t, st.AddPlayer(us))
	require.NoError(t, st.AddPlayer(them))
	exec := &scriptedExec{state: st}
	m := hunter.NewManager(st, testRegistry(), testConfig(), exec, nil)
	return &fixture{state: st, exec: exec, manager: m, us: us, them: them}
}

func (f *fixture) addUnit(t testingT, id, owner, typeID string, x, y int) *world.Unit {
	t.Helper()
	reg := testRegistry()
	ut, ok := reg.UnitTypeByID(typeID)
	require.True(t, ok, "unknown unit type %q", typeID)
	u := &world.Unit{
		ID: id, Owner: owner, TypeID: typeID,
		Pos: world.Position{X: x, Y: y},
		HP:  ut.HP, MovesLeft: ut.MoveRate * world.MoveCostBase,
	}
	require.NoError(t, f.state.AddUnit(u))
	return u
}

func TestManage_NoPrey_ReportsNoTarget(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)

	got := f.manager.Manage(h)

	assert.Equal(t, hunter.OutcomeNoTarget, got)
	assert.Empty(t, h.TargetID)
}

func TestManage_CommitsToTransporter(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 12, 5)

	f.manager.Manage(h)

	assert.Equal(t, "w1", h.TargetID)
	assert.Equal(t, world.RoleHunt, h.AIRole)
	assert.True(t, f.state.Turn.IsHunted("p1", "w1"))
}

func TestManage_PursuesAndKills(t *testing.T) {
	f := newFixture(t)
	f.exec.killOnAttack = true
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 8, 5)

	got := f.manager.Manage(h)

	require.Len(t, f.exec.attacks, 1)
	assert.Equal(t, world.Position{X: 8, Y: 5}, f.exec.attacks[0])
	_, alive := f.state.UnitByID("w1")
	assert.False(t, alive, "target should be destroyed")
	assert.Empty(t, h.TargetID)
	assert.Equal(t, hunter.OutcomeNoTarget, got)
}

func TestManage_OutOfMoves_KeepsTargetAcrossTurns(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 13, 5)

	got := f.manager.Manage(h)

	assert.Equal(t, hunter.OutcomeOutOfMoves, got)
	assert.True(t, h.Done)
	assert.Equal(t, "w1", h.TargetID)

	f.state.BeginTurn()
	h.MovesLeft = 2 * world.MoveCostBase
	f.manager.Manage(h)
	assert.Equal(t, "w1", h.TargetID, "pursuit must resume against the same target")
}

func TestManage_HysteresisKeepsEqualTarget(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	h.MovesLeft = 0
	f.addUnit(t, "far", "p2", "wagon", 7, 5)

	f.manager.Manage(h)
	require.Equal(t, "far", h.TargetID)

	// An equally juicy stack one tile closer must not steal the commitment.
	f.addUnit(t, "near", "p2", "wagon", 6, 6)
	f.manager.Manage(h)
	assert.Equal(t, "far", h.TargetID)
}

func TestManage_SwitchesForStrictlyJuicierStack(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	h.MovesLeft = 0
	f.addUnit(t, "w1", "p2", "wagon", 7, 5)

	f.manager.Manage(h)
	require.Equal(t, "w1", h.TargetID)

	// Two wagons stacked together double the prize.
	f.addUnit(t, "w2", "p2", "wagon", 6, 6)
	f.addUnit(t, "w3", "p2", "wagon", 6, 6)
	f.manager.Manage(h)
	assert.Equal(t, "w2", h.TargetID)
}

func TestManage_StopsWhenHunterDiesAttacking(t *testing.T) {
	f := newFixture(t)
	f.exec.killAttacker = true
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 7, 5)

	got := f.manager.Manage(h)

	assert.Len(t, f.exec.attacks, 1, "a lost attacker must not fight on")
	_, alive := f.state.UnitByID("h1")
	assert.False(t, alive)
	assert.Equal(t, hunter.OutcomeNoTarget, got)
}

func TestManage_SwitchesWhenIncumbentLiesAcrossRoughTerrain(t *testing.T) {
	f := newFixture(t)
	f.state.Map.TileAt(world.Position{X: 5, Y: 9}).Terrain = mountain
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	h.MovesLeft = 0
	f.addUnit(t, "slow", "p2", "wagon", 5, 9)

	f.manager.Manage(h)
	require.Equal(t, "slow", h.TargetID)

	// An equally juicy wagon the same number of tiles away, but over plain
	// ground, is much cheaper to actually reach.
	f.addUnit(t, "quick", "p2", "wagon", 9, 5)
	f.manager.Manage(h)
	assert.Equal(t, "quick", h.TargetID)
}

func TestManage_SkipsAlreadyHuntedStacks(t *testing.T) {
	f := newFixture(t)
	h1 := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	h2 := f.addUnit(t, "h2", "p1", "lancer", 5, 7)
	f.addUnit(t, "w1", "p2", "wagon", 8, 6)
	f.addUnit(t, "w2", "p2", "wagon", 10, 6)

	h1.MovesLeft = 0
	h2.MovesLeft = 0
	f.manager.Manage(h1)
	f.manager.Manage(h2)

	require.Equal(t, "w1", h1.TargetID)
	assert.Equal(t, "w2", h2.TargetID, "second hunter must pick the unclaimed stack")
}

func TestManage_IgnoresPeacefulOwners(t *testing.T) {
	f := newFixture(t)
	f.us.Diplomacy["p2"] = world.DiplPeace
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 8, 5)

	got := f.manager.Manage(h)

	assert.Equal(t, hunter.OutcomeNoTarget, got)
	assert.Empty(t, h.TargetID)
}

func TestManage_BlindTargetsHandicap(t *testing.T) {
	f := newFixture(t)
	f.us.BlindTargets = true
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 8, 5)

	assert.Equal(t, hunter.OutcomeNoTarget, f.manager.Manage(h))
}

func TestManage_BarbarianOwnerIsSilentNoOp(t *testing.T) {
	f := newFixture(t)
	f.us.Barbarian = true
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "w1", "p2", "wagon", 8, 5)

	assert.Equal(t, hunter.OutcomeNoTarget, f.manager.Manage(h))
	assert.Empty(t, h.TargetID)
}

func TestManage_RejectsFleeingFasterTarget(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	s := f.addUnit(t, "s1", "p2", "scout", 9, 5)
	prev := world.Position{X: 8, Y: 5}
	cur := world.Position{X: 9, Y: 5}
	s.PrevPos, s.CurPos = &prev, &cur

	assert.Equal(t, hunter.OutcomeNoTarget, f.manager.Manage(h))
}

func TestManage_ChasesFasterTargetThatApproaches(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	s := f.addUnit(t, "s1", "p2", "scout", 8, 5)
	prev := world.Position{X: 9, Y: 5}
	cur := world.Position{X: 8, Y: 5}
	s.PrevPos, s.CurPos = &prev, &cur

	f.manager.Manage(h)
	assert.Equal(t, "s1", h.TargetID)
}

func TestManage_SkipsStackTooToughToPayOff(t *testing.T) {
	f := newFixture(t)
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	f.addUnit(t, "e1", "p2", "envoy", 8, 5)
	f.addUnit(t, "g1", "p2", "guard", 8, 5)

	assert.Equal(t, hunter.OutcomeNoTarget, f.manager.Manage(h))
}

func TestJuiciness_GameLossDominatesTransport(t *testing.T) {
	f := newFixture(t)
	f.addUnit(t, "w1", "p2", "wagon", 3, 3)
	f.addUnit(t, "k1", "p2", "king", 9, 9)

	wagonThreat, _ := f.manager.Juiciness(world.Position{X: 3, Y: 3})
	kingThreat, _ := f.manager.Juiciness(world.Position{X: 9, Y: 9})

	assert.Greater(t, kingThreat, wagonThreat,
		"a game-loss unit must out-score any ordinary transport")
}

func TestJuiciness_GameLossMultiplierIsOrderIndependent(t *testing.T) {
	f := newFixture(t)
	f.addUnit(t, "w1", "p2", "wagon", 3, 3)
	f.addUnit(t, "k1", "p2", "king", 3, 3)
	f.addUnit(t, "k2", "p2", "king", 9, 9)
	f.addUnit(t, "w2", "p2", "wagon", 9, 9)

	t1, c1 := f.manager.Juiciness(world.Position{X: 3, Y: 3})
	t2, c2 := f.manager.Juiciness(world.Position{X: 9, Y: 9})

	assert.Equal(t, c1, c2, "stack cost must not depend on stacking order")
	assert.Equal(t, t1, t2)
	assert.Equal(t, 50*1000, c1, "the multiplier covers the whole stack")
}

func TestManage_MissileAssistKillsPrimaryTarget(t *testing.T) {
	f := newFixture(t)
	f.exec.killOnAttack = true
	h := f.addUnit(t, "h1", "p1", "lancer", 5, 5)
	msl := f.addUnit(t, "m1", "p1", "rocket", 5, 5)
	msl.TransportID = "h1"
	f.addUnit(t, "w1", "p2", "wagon", 9, 5)

	f.manager.Manage(h)

	require.Len(t, f.exec.attacks, 1)
	assert.Equal(t, world.Position{X: 9, Y: 5}, f.exec.attacks[0])
	assert.True(t, msl.Done)
	assert.Empty(t, msl.TransportID, "missile must unload before launch")
	_, alive := f.state.UnitByID("w1")
	assert.False(t, alive)
	assert.Equal(t, world.Position{X: 5, Y: 5}, h.Pos,
		"hunter should not burn moves when the missile does the work")
}

func TestEvalWant_FindsPreyWithVirtualProbe(t *testing.T) {
	f := newFixture(t)
	city := world.NewCity("c1", "Athens", "p1", world.Position{X: 2, Y: 2})
	require.NoError(t, f.state.AddCity(city))
	f.addUnit(t, "w1", "p2", "wagon", 5, 2)

	want, ut := f.manager.EvalWant(city)

	require.NotNil(t, ut)
	assert.Equal(t, "lancer", ut.ID)
	assert.Positive(t, want)
}

func TestEvalWant_VirtualProbeHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	city := world.NewCity("c1", "Athens", "p1", world.Position{X: 2, Y: 2})
	require.NoError(t, f.state.AddCity(city))
	f.addUnit(t, "w1", "p2", "wagon", 5, 2)
	before := len(f.state.Units())

	f.manager.EvalWant(city)

	assert.Len(t, f.state.Units(), before, "probe must not register units")
	assert.False(t, f.state.Turn.IsHunted("p1", "w1"),
		"probe must not claim prey")
	for _, u := range f.state.Units() {
		assert.Empty(t, u.TargetID)
	}
}

func TestEvalWant_MissileAmmoForGarrisonedHunter(t *testing.T) {
	f := newFixture(t)
	city := world.NewCity("c1", "Athens", "p1", world.Position{X: 2, Y: 2})
	city.ShieldSurplus = 10
	require.NoError(t, f.state.AddCity(city))
	g := f.addUnit(t, "h1", "p1", "lancer", 2, 2)
	g.AIRole = world.RoleHunt

	want, ut := f.manager.EvalWant(city)

	require.NotNil(t, ut, "garrisoned hunter should want ammunition even with no prey in sight")
	assert.Equal(t, "rocket", ut.ID)
	assert.Positive(t, want)
}

func TestEvalWant_DeadOwner_ReturnsZero(t *testing.T) {
	f := newFixture(t)
	f.us.Alive = false
	city := world.NewCity("c1", "Athens", "p1", world.Position{X: 2, Y: 2})
	require.NoError(t, f.state.AddCity(city))
	f.addUnit(t, "w1", "p2", "wagon", 5, 2)

	want, ut := f.manager.EvalWant(city)
	assert.Zero(t, want)
	assert.Nil(t, ut)
}

func TestProperty_Juiciness_MonotoneInStackSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		wagonsA := rapid.IntRange(0, 6).Draw(t, "wagonsA")
		lancersA := rapid.IntRange(0, 6).Draw(t, "lancersA")
		kingsA := rapid.IntRange(0, 2).Draw(t, "kingsA")
		wagonsB := rapid.IntRange(0, wagonsA).Draw(t, "wagonsB")
		lancersB := rapid.IntRange(0, lancersA).Draw(t, "lancersB")
		kingsB := rapid.IntRange(0, kingsA).Draw(t, "kingsB")
		kingsFirst := rapid.Bool().Draw(t, "kingsFirst")

		posA := world.Position{X: 3, Y: 3}
		posB := world.Position{X: 9, Y: 9}
		n := 0
		add := func(pos world.Position, typeID string, count int) {
			for i := 0; i < count; i++ {
				n++
				f.addUnit(t, fmt.Sprintf("u%d", n), "p2", typeID, pos.X, pos.Y)
			}
		}
		stack := func(pos world.Position, wagons, lancers, kings int) {
			if kingsFirst {
				add(pos, "king", kings)
			}
			add(pos, "wagon", wagons)
			add(pos, "lancer", lancers)
			if !kingsFirst {
				add(pos, "king", kings)
			}
		}
		stack(posA, wagonsA, lancersA, kingsA)
		stack(posB, wagonsB, lancersB, kingsB)

		threatA, costA := f.manager.Juiciness(posA)
		threatB, costB := f.manager.Juiciness(posB)
		if threatA < threatB || costA < costB {
			t.Fatalf("the larger stack must score at least as high: A (%d, %d) vs B (%d, %d)",
				threatA, costA, threatB, costB)
		}
	})
}
