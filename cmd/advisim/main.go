// Package main provides the advisim binary: a self-contained harness that
// generates a terrain map, seeds a handful of rival empires, and runs the
// domestic and pursuit advisors for a number of turns, logging every
// decision they make.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/advisor"
	"github.com/tmaynard/warcouncil/internal/game/hunter"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/turn"
	"github.com/tmaynard/warcouncil/internal/game/world"
	"github.com/tmaynard/warcouncil/internal/observability"
	"github.com/tmaynard/warcouncil/internal/scripting"
)

var (
	grass = &world.Terrain{ID: "grassland", MoveCost: 1, FoodBase: 2}
	hills = &world.Terrain{ID: "hills", MoveCost: 2, FoodBase: 1}
	ocean = &world.Terrain{ID: "ocean", MoveCost: 1, Ocean: true}
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/advisim.yaml", "path to configuration file")
	rulesDir := flag.String("rules", "content/rules", "path to ruleset YAML directory")
	scriptsDir := flag.String("scripts", "content/scripts", "directory of Lua scoring hooks; empty = scripting disabled")
	width := flag.Int("width", 48, "map width in tiles")
	height := flag.Int("height", 32, "map height in tiles")
	seed := flag.Int64("seed", 1, "terrain and economy random seed")
	players := flag.Int("players", 3, "number of rival empires")
	turns := flag.Int("turns", 20, "number of turns to simulate")
	flag.Parse()

	cfg := config.Default()
	if _, err := os.Stat(*configPath); err == nil {
		var lerr error
		cfg, lerr = config.Load(*configPath)
		if lerr != nil {
			log.Fatalf("loading config: %v", lerr)
		}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	registry, err := rules.Load(*rulesDir)
	if err != nil {
		logger.Fatal("loading ruleset", zap.String("dir", *rulesDir), zap.Error(err))
	}

	var hooks *scripting.Hooks
	if *scriptsDir != "" {
		if _, err := os.Stat(*scriptsDir); err == nil {
			hooks = scripting.NewHooks(logger)
			defer hooks.Close()
			if err := hooks.LoadDir(*scriptsDir); err != nil {
				logger.Fatal("loading scoring hooks", zap.Error(err))
			}
		}
	}

	rng := rand.New(rand.NewSource(*seed))
	m := generateMap(*width, *height, *seed)
	m.AssignContinents()
	st := world.NewState(m)
	seedEmpires(st, registry, rng, *players, logger)

	exec := &simExec{state: st, rules: registry, rng: rng, logger: logger}
	engine := advisor.New(st, registry, cfg.Advisor, cfg.Handicap, hooks, logger)
	hunters := hunter.NewManager(st, registry, cfg.Advisor, exec, logger)
	runner := turn.NewRunner(st, registry, cfg.Advisor, engine, hunters, logger)

	logger.Info("simulation starting",
		zap.Int("width", *width),
		zap.Int("height", *height),
		zap.Int("players", *players),
		zap.Int("turns", *turns),
	)

	ctx := context.Background()
	for i := 1; i <= *turns; i++ {
		refreshEconomy(st, registry, rng)
		if err := runner.RunTurn(ctx); err != nil {
			logger.Fatal("turn failed", zap.Int("turn", i), zap.Error(err))
		}
		logTurn(st, logger, i)
	}

	logger.Info("simulation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("units_alive", len(st.Units())),
	)
}

// generateMap builds the terrain from two octaves of simplex noise: a broad
// land/ocean mask plus a roughness layer for hills.
func generateMap(width, height int, seed int64) *world.Map {
	noise := opensimplex.New(seed)
	m := world.NewMap(width, height, grass)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := m.TileAt(world.Position{X: x, Y: y})
			elev := noise.Eval2(float64(x)/12, float64(y)/12)
			rough := noise.Eval2(float64(x)/4+100, float64(y)/4+100)
			switch {
			case elev < -0.15:
				t.Terrain = ocean
			case rough > 0.4:
				t.Terrain = hills
			default:
				t.Terrain = grass
			}
			t.Value = int((elev + 1) * 3)
		}
	}
	return m
}

// seedEmpires drops one capital and a small starting force per player on
// distinct land tiles. Every empire starts at war with every other.
func seedEmpires(st *world.State, reg *rules.Registry, rng *rand.Rand, n int, logger *zap.Logger) {
	names := []string{"Hellas", "Persia", "Carthage", "Scythia", "Kush", "Elam"}
	var all []*world.Player
	for i := 0; i < n; i++ {
		name := names[i%len(names)]
		p := world.NewPlayer(uuid.NewString(), name)
		for _, other := range all {
			p.Diplomacy[other.ID] = world.DiplWar
			other.Diplomacy[p.ID] = world.DiplWar
		}
		if err := st.AddPlayer(p); err != nil {
			logger.Fatal("seeding player", zap.Error(err))
		}
		all = append(all, p)

		pos := findLand(st, rng)
		city := world.NewCity(uuid.NewString(), name, p.ID, pos)
		city.Size = 2 + rng.Intn(4)
		if err := st.AddCity(city); err != nil {
			logger.Fatal("seeding capital", zap.Error(err))
		}
		for _, ut := range reg.UnitTypes() {
			if ut.Class != rules.ClassLand {
				continue
			}
			u := &world.Unit{
				ID:        uuid.NewString(),
				Owner:     p.ID,
				TypeID:    ut.ID,
				Pos:       nearbyLand(st, rng, pos),
				HP:        ut.HP,
				MovesLeft: ut.MoveRate * world.MoveCostBase,
			}
			if err := st.AddUnit(u); err != nil {
				logger.Fatal("seeding unit", zap.Error(err))
			}
		}
		logger.Info("empire seeded",
			zap.String("player", name),
			zap.Int("x", pos.X),
			zap.Int("y", pos.Y),
		)
	}
}

func findLand(st *world.State, rng *rand.Rand) world.Position {
	for {
		p := world.Position{X: rng.Intn(st.Map.Width), Y: rng.Intn(st.Map.Height)}
		t := st.Map.TileAt(p)
		if !t.Terrain.Ocean && t.CityID == "" {
			return p
		}
	}
}

func nearbyLand(st *world.State, rng *rand.Rand, around world.Position) world.Position {
	for i := 0; i < 50; i++ {
		p := world.Position{
			X: around.X + rng.Intn(7) - 3,
			Y: around.Y + rng.Intn(7) - 3,
		}
		if st.Map.InBounds(p) && !st.Map.TileAt(p).Terrain.Ocean {
			return p
		}
	}
	return around
}

// refreshEconomy fakes the city-economy simulation the advisors normally
// read from: surpluses drift randomly and units regain their moves.
func refreshEconomy(st *world.State, reg *rules.Registry, rng *rand.Rand) {
	for _, c := range st.Cities() {
		c.FoodSurplus = rng.Intn(5)
		c.ShieldSurplus = 1 + rng.Intn(12)
		c.TradeTotal = rng.Intn(20)
		c.TaxTotal = c.TradeTotal / 2
		c.ScienceTotal = c.TradeTotal - c.TaxTotal
		c.BestTileValue = 3 + rng.Intn(4)
	}
	for _, u := range st.Units() {
		if ut, ok := reg.UnitTypeByID(u.TypeID); ok {
			u.MovesLeft = ut.MoveRate * world.MoveCostBase
		}
	}
}

func logTurn(st *world.State, logger *zap.Logger, i int) {
	for _, c := range st.Cities() {
		logger.Info("city decision",
			zap.Int("turn", i),
			zap.String("city", c.Name),
			zap.Int("kind", int(c.Producing.Kind)),
			zap.String("target", c.Producing.ID),
			zap.Int("want", c.Producing.Want),
		)
	}
}

// simExec resolves movement and combat with simple deterministic-ish rules:
// a move always succeeds onto passable terrain, and an attack kills the
// weaker side, with the random stream breaking near-even fights.
type simExec struct {
	state  *world.State
	rules  *rules.Registry
	rng    *rand.Rand
	logger *zap.Logger
}

func (e *simExec) MoveStep(u *world.Unit, to world.Position) bool {
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
	tile := e.state.Map.TileAt(next)
	ut, ok := e.rules.UnitTypeByID(u.TypeID)
	if !ok {
		return false
	}
	if ut.Class == rules.ClassLand && tile.Terrain.Ocean {
		return false
	}
	if len(e.state.UnitsAt(next)) > 0 {
		// Stepping onto an occupied tile is combat, not movement.
		return false
	}
	cost := tile.Terrain.MoveCost
	if ut.Class != rules.ClassLand {
		cost = world.MoveCostBase
	}
	u.Pos = next
	u.MovesLeft -= max(cost, 1)
	return true
}

func (e *simExec) Attack(u *world.Unit, pos world.Position) {
	ut, ok := e.rules.UnitTypeByID(u.TypeID)
	if !ok {
		return
	}
	def := 0
	for _, d := range e.state.UnitsAt(pos) {
		if dt, ok := e.rules.UnitTypeByID(d.TypeID); ok && dt.Defense > def {
			def = dt.Defense
		}
	}
	roll := e.rng.Intn(ut.AttackPower() + def + 1)
	if roll <= ut.AttackPower() {
		var ids []string
		for _, d := range e.state.UnitsAt(pos) {
			ids = append(ids, d.ID)
		}
		for _, id := range ids {
			e.state.RemoveUnit(id)
		}
		e.logger.Info("stack destroyed",
			zap.String("attacker", u.ID),
			zap.Int("x", pos.X),
			zap.Int("y", pos.Y),
		)
		return
	}
	e.state.RemoveUnit(u.ID)
	e.logger.Info("attacker lost", zap.String("attacker", u.ID))
}
