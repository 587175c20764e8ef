package hunter

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmaynard/warcouncil/internal/game/advisor"
	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// citySite adapts a city and its owner to the ruleset build gates.
type citySite struct {
	m      *Manager
	city   *world.City
	player *world.Player
}

func (s *citySite) KnowsTech(id string) bool   { return s.player.Techs[id] }
func (s *citySite) HasBuilding(id string) bool { return s.city.HasBuilding(id) }
func (s *citySite) Coastal() bool              { return s.m.state.Map.IsCoastal(s.city.Pos) }
func (s *citySite) Government() string         { return s.player.Government }

// EvalWant measures how much the city should want to build a new hunter.
// Each candidate type is probed with a virtual unit placed on the city
// tile: if the phantom would find prey, the discounted threat becomes the
// build desire. When a hunter already garrisons the city, missile ordnance
// competes on its payload value amortized by build time.
//
// Postcondition: the state is unchanged; virtual probes leave no target
// commitments, role changes, or hunted marks.
func (m *Manager) EvalWant(city *world.City) (int, *rules.UnitType) {
	p, ok := m.state.PlayerByID(city.Owner)
	if !ok || !p.Alive || p.Barbarian {
		return 0, nil
	}
	site := &citySite{m: m, city: city, player: p}

	bestWant := 0
	var bestType *rules.UnitType
	for _, class := range []rules.UnitClass{rules.ClassLand, rules.ClassSea} {
		ut, ok := m.bestHunterOfClass(class, site)
		if !ok {
			continue
		}
		phantom := m.virtualHunter(city, ut)
		want, found := m.selectTarget(phantom, ut)
		if found && want > bestWant {
			bestWant, bestType = want, ut
		}
	}

	if m.hunterGarrisoned(city) {
		if want, ut := m.missileWant(city, site); want > bestWant {
			bestWant, bestType = want, ut
		}
	}

	if bestType != nil {
		m.logger.Debug("hunter build desire",
			zap.String("city", city.ID),
			zap.String("unit_type", bestType.ID),
			zap.Int("want", bestWant))
	}
	return bestWant, bestType
}

// virtualHunter builds a phantom unit of the given type on the city tile.
// It is never registered with the state.
func (m *Manager) virtualHunter(city *world.City, ut *rules.UnitType) *world.Unit {
	return &world.Unit{
		ID:        uuid.NewString(),
		Owner:     city.Owner,
		TypeID:    ut.ID,
		Pos:       city.Pos,
		HP:        ut.HP,
		MovesLeft: ut.MoveRate * world.MoveCostBase,
		Virtual:   true,
	}
}

// bestHunterOfClass returns the strongest buildable hunter-role type of the
// given movement class.
func (m *Manager) bestHunterOfClass(class rules.UnitClass, site rules.BuildSite) (*rules.UnitType, bool) {
	var best *rules.UnitType
	for _, ut := range m.rules.UnitsWithRole(rules.RoleHunter) {
		if ut.Class != class || !m.rules.CanBuildUnit(site, ut) {
			continue
		}
		if best == nil || ut.BuildCost > best.BuildCost {
			best = ut
		}
	}
	return best, best != nil
}

// hunterGarrisoned reports whether a hunter-role unit sits on the city tile.
func (m *Manager) hunterGarrisoned(city *world.City) bool {
	for _, u := range m.state.UnitsAt(city.Pos) {
		if u.Owner != city.Owner {
			continue
		}
		if u.AIRole == world.RoleHunt {
			return true
		}
		if ut, ok := m.rules.UnitTypeByID(u.TypeID); ok && ut.HasRole(rules.RoleHunter) {
			return true
		}
	}
	return false
}

// missileWant scores the best buildable missile as hunter ammunition: raw
// payload value weighted by hit points, clamped attack, and speed, then
// amortized over the turns the city needs to produce it.
func (m *Manager) missileWant(city *world.City, site rules.BuildSite) (int, *rules.UnitType) {
	best := 0
	var bestType *rules.UnitType
	base := m.rules.Constants().AmortizeBase
	for _, ut := range m.rules.UnitTypes() {
		if !ut.HasFlag(rules.FlagMissile) || !m.rules.CanBuildUnit(site, ut) {
			continue
		}
		value := ut.HP * ut.AttackPower() * (ut.MoveRate + 4) / 4
		buildTurns := ut.BuildCost / max(1, city.ShieldSurplus)
		want := advisor.Amortize(value, buildTurns, base) / 8
		if want > best {
			best, bestType = want, ut
		}
	}
	return best, bestType
}
