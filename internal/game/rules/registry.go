package rules

import "sort"

// BuildSite is the slice of world state a buildability check needs.
// Implemented by the advisor's city/player view; keeps this package free of
// a dependency on the world model.
type BuildSite interface {
	// KnowsTech reports whether the owning player has the named technology.
	KnowsTech(tech string) bool
	// HasBuilding reports whether the city already contains the building.
	HasBuilding(id string) bool
	// Coastal reports whether the city is adjacent to ocean.
	Coastal() bool
	// Government returns the owning player's government id.
	Government() string
}

// Registry indexes a loaded ruleset for lookup.
//
// Invariant: immutable after construction; safe for concurrent reads.
type Registry struct {
	unitTypes map[string]*UnitType
	buildings map[string]*Building
	unitOrder []string
	bldOrder  []string
	constants Constants
}

// NewRegistry builds a Registry from parsed tables.
//
// Precondition: ids are unique (the loader validates this).
func NewRegistry(units []*UnitType, buildings []*Building, c Constants) *Registry {
	r := &Registry{
		unitTypes: make(map[string]*UnitType, len(units)),
		buildings: make(map[string]*Building, len(buildings)),
		constants: c,
	}
	for _, u := range units {
		r.unitTypes[u.ID] = u
		r.unitOrder = append(r.unitOrder, u.ID)
	}
	for _, b := range buildings {
		if b.Value == 0 {
			b.Value = b.BuildCost
		}
		r.buildings[b.ID] = b
		r.bldOrder = append(r.bldOrder, b.ID)
	}
	return r
}

// Constants returns the ruleset's weighting constants.
func (r *Registry) Constants() Constants { return r.constants }

// UnitTypeByID returns the unit type for id, or false if unknown.
func (r *Registry) UnitTypeByID(id string) (*UnitType, bool) {
	u, ok := r.unitTypes[id]
	return u, ok
}

// BuildingByID returns the building for id, or false if unknown.
func (r *Registry) BuildingByID(id string) (*Building, bool) {
	b, ok := r.buildings[id]
	return b, ok
}

// UnitTypes returns all unit types in declaration order.
func (r *Registry) UnitTypes() []*UnitType {
	out := make([]*UnitType, 0, len(r.unitOrder))
	for _, id := range r.unitOrder {
		out = append(out, r.unitTypes[id])
	}
	return out
}

// Buildings returns all buildings in declaration order.
func (r *Registry) Buildings() []*Building {
	out := make([]*Building, 0, len(r.bldOrder))
	for _, id := range r.bldOrder {
		out = append(out, r.buildings[id])
	}
	return out
}

// UnitsWithRole returns all unit types carrying role, in declaration order.
func (r *Registry) UnitsWithRole(role string) []*UnitType {
	var out []*UnitType
	for _, id := range r.unitOrder {
		if u := r.unitTypes[id]; u.HasRole(role) {
			out = append(out, u)
		}
	}
	return out
}

// BestWithRole returns the buildable unit type with role that has the
// highest build cost (the strongest available), or false if none qualifies.
//
// Postcondition: ties are broken by declaration order (first wins).
func (r *Registry) BestWithRole(role string, site BuildSite) (*UnitType, bool) {
	var best *UnitType
	for _, u := range r.UnitsWithRole(role) {
		if !r.CanBuildUnit(site, u) {
			continue
		}
		if best == nil || u.BuildCost > best.BuildCost {
			best = u
		}
	}
	return best, best != nil
}

// CanBuildUnit reports whether site may build the unit type now.
//
// Postcondition: false when the required tech is missing or a sea unit is
// requested by a landlocked city; never an error.
func (r *Registry) CanBuildUnit(site BuildSite, u *UnitType) bool {
	if u.ReqTech != "" && !site.KnowsTech(u.ReqTech) {
		return false
	}
	if u.Class == ClassSea && !site.Coastal() {
		return false
	}
	return true
}

// CanBuildImprovement reports whether site may build the improvement now.
//
// Postcondition: false for obsolete buildings, already-present buildings,
// missing tech/building/government prerequisites; never an error.
func (r *Registry) CanBuildImprovement(site BuildSite, b *Building) bool {
	if b.Obsolete || site.HasBuilding(b.ID) {
		return false
	}
	if b.ReqTech != "" && !site.KnowsTech(b.ReqTech) {
		return false
	}
	if b.ReqBuilding != "" && !site.HasBuilding(b.ReqBuilding) {
		return false
	}
	if b.ReqGov != "" && site.Government() != b.ReqGov {
		return false
	}
	if b.Category == CatHarbor && !site.Coastal() {
		return false
	}
	return true
}

// Categories returns the sorted set of categories used by the loaded
// buildings. Useful for verifying every category has a registered scorer.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, b := range r.buildings {
		seen[b.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
