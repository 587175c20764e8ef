package advisor

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
	"github.com/tmaynard/warcouncil/internal/scripting"
)

// Engine is the Building Desire Engine plus the Domestic Build Chooser.
// It reads world state and ruleset tables and writes only the per-city
// advisor output fields.
//
// Invariant: evaluation is idempotent; two calls over unchanged state
// produce identical output.
type Engine struct {
	state    *world.State
	rules    *rules.Registry
	cfg      config.AdvisorConfig
	handicap config.HandicapConfig
	hooks    *scripting.Hooks // nil = no scripted scorers
	registry map[string]Scorer
	logger   *zap.Logger
}

// New creates an Engine with the default scoring strategies registered.
//
// Precondition: state, reg, and logger must be non-nil; hooks may be nil.
func New(state *world.State, reg *rules.Registry, cfg config.AdvisorConfig,
	handicap config.HandicapConfig, hooks *scripting.Hooks, logger *zap.Logger) *Engine {
	if state == nil || reg == nil {
		panic("advisor.New: precondition violated: state and rules must be non-nil")
	}
	if logger == nil {
		panic("advisor.New: precondition violated: logger must be non-nil")
	}
	e := &Engine{
		state:    state,
		rules:    reg,
		cfg:      cfg,
		handicap: handicap,
		hooks:    hooks,
		registry: make(map[string]Scorer),
		logger:   logger,
	}
	e.registerDefaults()
	return e
}

// RegisterScorer binds a scoring strategy to a building category,
// replacing any existing binding.
func (e *Engine) RegisterScorer(category string, s Scorer) {
	e.registry[category] = s
}

// View bundles one city with its owner for scoring. It implements
// rules.BuildSite and is the read surface handed to Scorer strategies,
// including externally registered ones.
type View struct {
	e      *Engine
	city   *world.City
	player *world.Player
}

// City returns the city under evaluation.
func (v *View) City() *world.City { return v.city }

// Player returns the city's owner.
func (v *View) Player() *world.Player { return v.player }

func (e *Engine) viewOf(city *world.City) *View {
	p, ok := e.state.PlayerByID(city.Owner)
	if !ok {
		// An ownerless city can appear transiently during conquest; score
		// nothing for it.
		return nil
	}
	return &View{e: e, city: city, player: p}
}

func (v *View) KnowsTech(tech string) bool { return v.player.Techs[tech] }
func (v *View) HasBuilding(id string) bool { return v.city.HasBuilding(id) }
func (v *View) Coastal() bool              { return v.e.state.Map.IsCoastal(v.city.Pos) }
func (v *View) Government() string         { return v.player.Government }

func (v *View) constants() rules.Constants { return v.e.rules.Constants() }

func (v *View) continent() int {
	return v.e.state.Map.TileAt(v.city.Pos).Continent
}

// hasBuildingOfCategory reports whether the city already holds a building
// of the given category.
func (v *View) hasBuildingOfCategory(cat string) bool {
	for id := range v.city.Buildings {
		if b, ok := v.e.rules.BuildingByID(id); ok && b.Category == cat {
			return true
		}
	}
	return false
}

// HappinessValue prices pacifying up to happy citizens. Payment is tiered:
// redeemed elvis specialists first (each worth the best workable tile,
// because a freed specialist becomes a worker), then genuinely unhappy
// citizens at a smaller fixed value (with a surcharge while the city is in
// disorder), then a flat fallback for any remainder.
//
// Postcondition: non-decreasing in happy; never negative.
func (v *View) HappinessValue(happy int) int {
	value := 0
	elvis := v.city.Elvis
	for happy > 0 && elvis > 0 {
		value += v.city.BestTileValue
		elvis--
		happy--
	}
	unhappy := v.city.UnhappyCitizens()
	per := unhappyCitizenValue
	if v.city.InDisorder() {
		per += disorderSurcharge
	}
	for happy > 0 && unhappy > 0 {
		value += per
		unhappy--
		happy--
	}
	value += happy * contentCitizenValue
	return value
}
