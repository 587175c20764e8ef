package hunter

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/game/path"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// selectTarget scans outward from the hunter along its own movement paths
// and commits to the juiciest qualifying stack within the search horizon.
// It returns the distance-discounted threat of the chosen target.
//
// A virtual hunter evaluates exactly as a real one but commits nothing:
// no target id, no role change, no hunted mark.
//
// Invariant: an already-committed hunter only switches targets for a
// strictly greater discounted threat.
func (m *Manager) selectTarget(hunter *world.Unit, ht *rules.UnitType) (int, bool) {
	owner, ok := m.state.PlayerByID(hunter.Owner)
	if !ok || owner.BlindTargets {
		return 0, false
	}

	it := path.NewIterator(m.state.Map, hunter.Pos, path.MoveParams{
		Class:    ht.Class,
		MoveRate: ht.MoveRate,
	})
	defer it.Close()

	horizon := m.cfg.HunterSearchTurns * ht.MoveRate * world.MoveCostBase
	currentThreat := -1

	for {
		step, ok := it.Next()
		if !ok || step.Cost > horizon {
			return 0, false
		}
		tile := m.state.Map.TileAt(step.Pos)
		if tile.CityID != "" {
			continue
		}
		candidate, ctype := m.qualify(hunter, owner, step.Pos)
		if candidate == nil {
			continue
		}
		if m.fleeing(hunter, ht, candidate, ctype) {
			continue
		}
		threat, cost := m.Juiciness(step.Pos)
		win := winChance(ht, m.bestDefense(step.Pos))
		if cost*win/100 < ht.BuildCost {
			continue
		}
		discounted := threat / (step.Cost/world.MoveCostBase + 1)
		if hunter.TargetID != "" && hunter.TargetID != candidate.ID {
			if currentThreat < 0 {
				currentThreat = m.committedThreat(hunter, ht, horizon)
			}
			if discounted <= currentThreat {
				continue
			}
		}
		if hunter.Virtual {
			return discounted, true
		}
		hunter.TargetID = candidate.ID
		hunter.AIRole = world.RoleHunt
		hunter.Dest = step.Pos
		m.state.Turn.MarkHunted(hunter.Owner, candidate.ID)
		m.logger.Debug("hunter committed to target",
			zap.String("hunter", hunter.ID),
			zap.String("target", candidate.ID),
			zap.Int("threat", discounted),
			zap.Int("path_cost", step.Cost))
		return discounted, true
	}
}

// qualify returns the first unit on pos that makes the stack worth hunting,
// or nil when the tile holds no prey. Qualifying members are transporters,
// game-loss units, and diplomats belonging to a dangerous player.
func (m *Manager) qualify(hunter *world.Unit, owner *world.Player, pos world.Position) (*world.Unit, *rules.UnitType) {
	for _, u := range m.state.UnitsAt(pos) {
		if u.Owner == hunter.Owner {
			return nil, nil
		}
		if !owner.DangerousTo(u.Owner) {
			return nil, nil
		}
		ut, ok := m.rules.UnitTypeByID(u.TypeID)
		if !ok {
			continue
		}
		if ut.Transport > 0 || ut.HasFlag(rules.FlagGameLoss) || ut.HasFlag(rules.FlagDiplomat) {
			// A stack another of our hunters already claimed is off
			// limits, except to the hunter that claimed it.
			if u.ID != hunter.TargetID && m.state.Turn.IsHunted(hunter.Owner, u.ID) {
				continue
			}
			return u, ut
		}
	}
	return nil, nil
}

// fleeing reports whether the target is faster than the hunter and was
// observed moving away from it.
func (m *Manager) fleeing(hunter *world.Unit, ht *rules.UnitType, target *world.Unit, tt *rules.UnitType) bool {
	if tt.MoveRate <= ht.MoveRate {
		return false
	}
	if target.CurPos == nil || target.PrevPos == nil {
		return false
	}
	return world.Distance(*target.CurPos, hunter.Pos) >= world.Distance(*target.PrevPos, hunter.Pos)
}

// committedThreat re-scores the hunter's current target so a challenger can
// be compared against it, discounted by the same path cost metric the
// challenger scan uses. A vanished or unreachable target scores zero and
// loses to any qualifying challenger.
func (m *Manager) committedThreat(hunter *world.Unit, ht *rules.UnitType, horizon int) int {
	target, ok := m.state.UnitByID(hunter.TargetID)
	if !ok {
		return 0
	}
	threat, _ := m.Juiciness(target.Pos)
	it := path.NewIterator(m.state.Map, hunter.Pos, path.MoveParams{
		Class:    ht.Class,
		MoveRate: ht.MoveRate,
	})
	defer it.Close()
	for {
		step, ok := it.Next()
		if !ok || step.Cost > horizon {
			return 0
		}
		if step.Pos == target.Pos {
			return threat / (step.Cost/world.MoveCostBase + 1)
		}
	}
}
