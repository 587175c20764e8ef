package hunter

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/config"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// Outcome reports how far a pursuit got this turn.
type Outcome int

const (
	// OutcomeNoTarget means no qualifying prey was found; the unit is free
	// for other duties.
	OutcomeNoTarget Outcome = iota
	// OutcomeOutOfMoves means the unit is committed to a target but cannot
	// act further this turn.
	OutcomeOutOfMoves
	// OutcomeRetry means pursuit was cut short by the internal step bound
	// with moves still left; the caller may re-run management immediately.
	OutcomeRetry
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoTarget:
		return "no-target"
	case OutcomeOutOfMoves:
		return "out-of-moves"
	case OutcomeRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Executor performs the unit actions that can trigger combat resolution.
// The manager decides what to do; the executor owns movement bookkeeping
// and battle outcomes, including unit removal on death.
type Executor interface {
	// MoveStep advances u one tile toward to, spending move fragments.
	// Reports whether the unit actually moved.
	MoveStep(u *world.Unit, to world.Position) bool
	// Attack resolves an attack by u against the stack on pos.
	Attack(u *world.Unit, pos world.Position)
}

// Manager runs target selection and pursuit for hunter-role units.
type Manager struct {
	state  *world.State
	rules  *rules.Registry
	cfg    config.AdvisorConfig
	exec   Executor
	logger *zap.Logger
}

// NewManager builds a pursuit manager.
//
// Precondition: state, reg, and exec are non-nil.
func NewManager(state *world.State, reg *rules.Registry, cfg config.AdvisorConfig, exec Executor, logger *zap.Logger) *Manager {
	if state == nil {
		panic("hunter: nil state")
	}
	if reg == nil {
		panic("hunter: nil registry")
	}
	if exec == nil {
		panic("hunter: nil executor")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{state: state, rules: reg, cfg: cfg, exec: exec, logger: logger}
}

// pursuitStepLimit bounds the per-call movement loop so a misbehaving
// executor cannot spin the manager forever.
const pursuitStepLimit = 64

// Manage runs one turn of pursuit for hunter. It selects or re-validates a
// target, fires co-located missiles, and walks the unit toward the prey
// until moves run out, the target dies, or the hunter itself is lost in
// combat.
//
// Precondition: hunter is non-nil and registered with the state.
// Postcondition: hunter.TargetID is empty iff no qualifying prey exists.
func (m *Manager) Manage(hunter *world.Unit) Outcome {
	p, ok := m.state.PlayerByID(hunter.Owner)
	if !ok || !p.Alive || p.Barbarian {
		return OutcomeNoTarget
	}
	ht, ok := m.rules.UnitTypeByID(hunter.TypeID)
	if !ok {
		return OutcomeNoTarget
	}

	for steps := 0; steps < pursuitStepLimit; steps++ {
		if hunter.TargetID == "" {
			if _, found := m.selectTarget(hunter, ht); !found {
				return OutcomeNoTarget
			}
		} else {
			// Opportunistic re-evaluation: a strictly juicier stack
			// may steal the commitment.
			m.selectTarget(hunter, ht)
		}
		target, ok := m.state.UnitByID(hunter.TargetID)
		if !ok {
			hunter.TargetID = ""
			continue
		}

		if m.tryLaunch(hunter, ht) {
			hunter.TargetID = ""
			continue
		}
		if !m.alive(hunter) {
			return OutcomeNoTarget
		}
		if hunter.MovesLeft <= 0 {
			hunter.Done = true
			return OutcomeOutOfMoves
		}
		moved := m.exec.MoveStep(hunter, target.Pos)
		if !m.alive(hunter) {
			return OutcomeNoTarget
		}
		if !moved {
			// Blocked this turn; keep the commitment for next turn.
			hunter.Done = true
			return OutcomeOutOfMoves
		}
		if m.tryLaunch(hunter, ht) {
			hunter.TargetID = ""
			continue
		}
		if !m.alive(hunter) {
			return OutcomeNoTarget
		}
		target, ok = m.state.UnitByID(hunter.TargetID)
		if !ok {
			hunter.TargetID = ""
			continue
		}
		if world.Distance(hunter.Pos, target.Pos) <= 1 {
			m.exec.Attack(hunter, target.Pos)
			if !m.alive(hunter) {
				return OutcomeNoTarget
			}
			if _, ok := m.state.UnitByID(hunter.TargetID); !ok {
				hunter.TargetID = ""
				continue
			}
		}
		if hunter.MovesLeft <= 0 {
			hunter.Done = true
			return OutcomeOutOfMoves
		}
	}
	return OutcomeRetry
}

// alive re-resolves the hunter through the state after an executor
// primitive ran; movement and attacks can kill the acting unit itself.
func (m *Manager) alive(hunter *world.Unit) bool {
	_, ok := m.state.UnitByID(hunter.ID)
	return ok
}
