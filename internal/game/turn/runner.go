// Package turn sequences one full advisor pass over the world: per-turn
// state reset, then per player the city build decisions and the hunter
// pursuits, in stable insertion order.
package turn

import (
	"context"

	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/advisor"
	"github.com/tmaynard/warcouncil/internal/game/hunter"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// Runner drives the advisors for every player once per turn.
type Runner struct {
	state   *world.State
	rules   *rules.Registry
	cfg     config.AdvisorConfig
	engine  *advisor.Engine
	hunters *hunter.Manager
	logger  *zap.Logger
}

// NewRunner wires a runner over already-constructed advisors.
//
// Precondition: all arguments are non-nil.
func NewRunner(state *world.State, reg *rules.Registry, cfg config.AdvisorConfig,
	engine *advisor.Engine, hunters *hunter.Manager, logger *zap.Logger) *Runner {
	if state == nil || reg == nil || engine == nil || hunters == nil {
		panic("turn.NewRunner: precondition violated: nil collaborator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{state: state, rules: reg, cfg: cfg, engine: engine, hunters: hunters, logger: logger}
}

// RunTurn executes one advisor pass. Barbarian and dead players are
// skipped; their units and cities keep whatever orders they had.
//
// Postcondition: every living player's city has a fresh Producing choice.
func (r *Runner) RunTurn(ctx context.Context) error {
	r.state.BeginTurn()
	for _, p := range r.state.Players() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Alive || p.Barbarian {
			continue
		}
		r.runCities(p)
		r.runHunters(p)
	}
	return nil
}

// runCities evaluates building desire and picks a build for each city,
// letting a hunter construction request outbid the domestic choice.
func (r *Runner) runCities(p *world.Player) {
	for _, city := range r.state.CitiesOf(p.ID) {
		r.engine.EvalBuildings(city)
		choice := r.engine.ChooseBuild(city)
		if want, ut := r.hunters.EvalWant(city); ut != nil && want > choice.Want {
			if want > r.cfg.BuyWantCap {
				want = r.cfg.BuyWantCap
			}
			choice = world.Choice{Kind: world.ChoiceAttacker, ID: ut.ID, Want: want}
			r.logger.Debug("hunter outbid domestic build",
				zap.String("city", city.Name),
				zap.String("unit_type", ut.ID),
				zap.Int("want", want))
		}
		city.Producing = choice
		city.LastChoice = choice
	}
}

// runHunters manages pursuit for every unit the player hunts with: units
// already in the hunting role plus idle units of hunter-capable types.
func (r *Runner) runHunters(p *world.Player) {
	for _, u := range r.state.UnitsOf(p.ID) {
		if u.Done {
			continue
		}
		if !r.huntsFor(u) {
			continue
		}
		outcome := r.hunters.Manage(u)
		r.logger.Debug("pursuit managed",
			zap.String("unit", u.ID),
			zap.String("outcome", outcome.String()))
	}
}

func (r *Runner) huntsFor(u *world.Unit) bool {
	if u.AIRole == world.RoleHunt {
		return true
	}
	if u.AIRole != world.RoleNone {
		return false
	}
	ut, ok := r.rules.UnitTypeByID(u.TypeID)
	return ok && ut.HasRole(rules.RoleHunter)
}
