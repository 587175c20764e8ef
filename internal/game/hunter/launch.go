package hunter

import (
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/game/path"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// tryLaunch fires one co-located friendly missile at the hunter's primary
// target, or at any sea or air mover in range that out-classes the hunter's
// own defense. It reports whether the primary target no longer exists after
// the launch.
func (m *Manager) tryLaunch(hunter *world.Unit, ht *rules.UnitType) bool {
	target, _ := m.state.UnitByID(hunter.TargetID)

	for _, msl := range m.state.UnitsAt(hunter.Pos) {
		if msl.Owner != hunter.Owner || msl.ID == hunter.ID || msl.Done {
			continue
		}
		mt, ok := m.rules.UnitTypeByID(msl.TypeID)
		if !ok || !mt.HasFlag(rules.FlagMissile) {
			continue
		}
		victim, vpos := m.missileVictim(msl, mt, ht, target)
		if victim == nil {
			continue
		}
		if msl.TransportID != "" {
			msl.TransportID = ""
		}
		m.logger.Debug("missile launched",
			zap.String("missile", msl.ID),
			zap.String("victim", victim.ID))
		m.exec.Attack(msl, vpos)
		msl.Done = true
		break
	}

	if hunter.TargetID == "" {
		return false
	}
	_, alive := m.state.UnitByID(hunter.TargetID)
	return !alive
}

// missileVictim walks the missile's own reachable tiles and picks what it
// should hit: the hunter's primary target when reachable, otherwise the
// first enemy sea or air mover whose attack out-classes the hunter's
// defense.
func (m *Manager) missileVictim(msl *world.Unit, mt *rules.UnitType, ht *rules.UnitType, primary *world.Unit) (*world.Unit, world.Position) {
	it := path.NewIterator(m.state.Map, msl.Pos, path.MoveParams{
		Class:    mt.Class,
		MoveRate: mt.MoveRate,
	})
	defer it.Close()

	var alt *world.Unit
	var altPos world.Position
	for {
		step, ok := it.Next()
		if !ok || step.Cost > msl.MovesLeft {
			break
		}
		for _, u := range m.state.UnitsAt(step.Pos) {
			if u.Owner == msl.Owner {
				continue
			}
			if primary != nil && u.ID == primary.ID {
				return u, step.Pos
			}
			if alt != nil {
				continue
			}
			ut, ok := m.rules.UnitTypeByID(u.TypeID)
			if !ok {
				continue
			}
			if (ut.Class == rules.ClassSea || ut.Class == rules.ClassAir) && ut.Attack > ht.Defense {
				alt, altPos = u, step.Pos
			}
		}
	}
	return alt, altPos
}
