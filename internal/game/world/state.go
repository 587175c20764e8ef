package world

import "fmt"

// TurnContext holds per-turn transient advisor state. It is cleared at the
// start of each turn; nothing in it survives across turns.
type TurnContext struct {
	// hunted records, per hunting player, which enemy unit ids have already
	// been claimed as prey this turn. Advisory dedup, not a lock.
	hunted map[string]map[string]struct{}
}

// NewTurnContext returns an empty TurnContext.
func NewTurnContext() *TurnContext {
	return &TurnContext{hunted: make(map[string]map[string]struct{})}
}

// MarkHunted claims targetID as prey of playerID for the rest of this turn.
func (tc *TurnContext) MarkHunted(playerID, targetID string) {
	m, ok := tc.hunted[playerID]
	if !ok {
		m = make(map[string]struct{})
		tc.hunted[playerID] = m
	}
	m[targetID] = struct{}{}
}

// IsHunted reports whether playerID already claimed targetID this turn.
func (tc *TurnContext) IsHunted(playerID, targetID string) bool {
	_, ok := tc.hunted[playerID][targetID]
	return ok
}

// State is the full queryable world state. Iteration orders are stable
// insertion orders; lookups by id tolerate not-found.
type State struct {
	Map *Map

	players  []*Player
	cities   []*City
	units    []*Unit
	playerBy map[string]*Player
	cityBy   map[string]*City
	unitBy   map[string]*Unit

	Turn *TurnContext
}

// NewState creates an empty state over m.
//
// Precondition: m must be non-nil.
func NewState(m *Map) *State {
	if m == nil {
		panic("world.NewState: precondition violated: map must be non-nil")
	}
	return &State{
		Map:      m,
		playerBy: make(map[string]*Player),
		cityBy:   make(map[string]*City),
		unitBy:   make(map[string]*Unit),
		Turn:     NewTurnContext(),
	}
}

// AddPlayer registers p.
//
// Postcondition: returns error on duplicate id.
func (s *State) AddPlayer(p *Player) error {
	if _, dup := s.playerBy[p.ID]; dup {
		return fmt.Errorf("world: duplicate player ID %q", p.ID)
	}
	s.players = append(s.players, p)
	s.playerBy[p.ID] = p
	return nil
}

// AddCity registers c and stamps its tile.
//
// Postcondition: returns error on duplicate id or occupied tile.
func (s *State) AddCity(c *City) error {
	if _, dup := s.cityBy[c.ID]; dup {
		return fmt.Errorf("world: duplicate city ID %q", c.ID)
	}
	t := s.Map.TileAt(c.Pos)
	if t.CityID != "" {
		return fmt.Errorf("world: tile %v already holds city %q", c.Pos, t.CityID)
	}
	t.CityID = c.ID
	s.cities = append(s.cities, c)
	s.cityBy[c.ID] = c
	return nil
}

// AddUnit registers u.
//
// Precondition: u must not be virtual; virtual units never enter the state.
// Postcondition: returns error on duplicate id.
func (s *State) AddUnit(u *Unit) error {
	if u.Virtual {
		panic("world.State.AddUnit: precondition violated: virtual units have no map presence")
	}
	if _, dup := s.unitBy[u.ID]; dup {
		return fmt.Errorf("world: duplicate unit ID %q", u.ID)
	}
	s.units = append(s.units, u)
	s.unitBy[u.ID] = u
	return nil
}

// RemoveUnit destroys the unit with the given id. Unknown ids are ignored;
// combat can destroy a unit before its owner gets to act.
func (s *State) RemoveUnit(id string) {
	if _, ok := s.unitBy[id]; !ok {
		return
	}
	delete(s.unitBy, id)
	for i, u := range s.units {
		if u.ID == id {
			s.units = append(s.units[:i], s.units[i+1:]...)
			break
		}
	}
}

// PlayerByID returns the player for id, or false if unknown.
func (s *State) PlayerByID(id string) (*Player, bool) {
	p, ok := s.playerBy[id]
	return p, ok
}

// CityByID returns the city for id, or false if unknown or destroyed.
func (s *State) CityByID(id string) (*City, bool) {
	c, ok := s.cityBy[id]
	return c, ok
}

// UnitByID resolves a weak unit reference. Returns false when the unit no
// longer exists; callers must tolerate this on every dereference.
func (s *State) UnitByID(id string) (*Unit, bool) {
	u, ok := s.unitBy[id]
	return u, ok
}

// Players returns all players in insertion order.
func (s *State) Players() []*Player { return s.players }

// Cities returns all cities in insertion order.
func (s *State) Cities() []*City { return s.cities }

// Units returns all units in insertion order.
func (s *State) Units() []*Unit { return s.units }

// CitiesOf returns the cities owned by playerID in insertion order.
func (s *State) CitiesOf(playerID string) []*City {
	var out []*City
	for _, c := range s.cities {
		if c.Owner == playerID {
			out = append(out, c)
		}
	}
	return out
}

// UnitsOf returns the units owned by playerID in insertion order.
func (s *State) UnitsOf(playerID string) []*Unit {
	var out []*Unit
	for _, u := range s.units {
		if u.Owner == playerID {
			out = append(out, u)
		}
	}
	return out
}

// UnitsAt returns all units standing on p, in insertion order.
func (s *State) UnitsAt(p Position) []*Unit {
	var out []*Unit
	for _, u := range s.units {
		if u.Pos == p {
			out = append(out, u)
		}
	}
	return out
}

// CityAt returns the city on p, or false when the tile holds none.
func (s *State) CityAt(p Position) (*City, bool) {
	id := s.Map.TileAt(p).CityID
	if id == "" {
		return nil, false
	}
	return s.CityByID(id)
}

// BeginTurn clears all per-turn transient state: the hunted bitset and
// every unit's Done flag, and shifts unit position history.
func (s *State) BeginTurn() {
	s.Turn = NewTurnContext()
	for _, u := range s.units {
		u.Done = false
		u.RecordPosition(u.Pos)
	}
}
