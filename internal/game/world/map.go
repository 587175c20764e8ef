// Package world provides the queryable world-state model: the tile map with
// continent ids, cities, units, players, and the per-turn transient context.
// The advisor engines consume this package read-only except for the small
// set of derived fields they own (building wants, choice caches, unit
// hunting state).
package world

// Position is a tile coordinate on the map.
type Position struct {
	X int
	Y int
}

// Terrain describes one terrain kind.
type Terrain struct {
	ID       string
	MoveCost int // cost in move fragments to enter a tile of this terrain
	Ocean    bool
	FoodBase int
}

// MoveCostBase is the cost of one full move point in move fragments.
// A unit with MoveRate 2 has 2*MoveCostBase fragments per turn.
const MoveCostBase = 3

// Tile is one cell of the map.
type Tile struct {
	Terrain   *Terrain
	Continent int    // 0 until AssignContinents; ocean tiles stay 0
	CityID    string // empty when no city stands here
	Value     int    // worker-output value of the tile, set by the simulation
}

// Map is a rectangular tile grid.
//
// Invariant: len(tiles) == Width*Height; all tiles have non-nil Terrain.
type Map struct {
	Width  int
	Height int
	tiles  []Tile
}

// NewMap creates a map with every tile set to the given terrain.
//
// Precondition: width > 0, height > 0, terrain non-nil.
func NewMap(width, height int, terrain *Terrain) *Map {
	if width <= 0 || height <= 0 {
		panic("world.NewMap: precondition violated: dimensions must be positive")
	}
	if terrain == nil {
		panic("world.NewMap: precondition violated: terrain must be non-nil")
	}
	m := &Map{Width: width, Height: height, tiles: make([]Tile, width*height)}
	for i := range m.tiles {
		m.tiles[i].Terrain = terrain
	}
	return m
}

// InBounds reports whether p lies on the map.
func (m *Map) InBounds(p Position) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// TileAt returns the tile at p.
//
// Precondition: p must be in bounds.
func (m *Map) TileAt(p Position) *Tile {
	if !m.InBounds(p) {
		panic("world.Map.TileAt: precondition violated: position out of bounds")
	}
	return &m.tiles[p.Y*m.Width+p.X]
}

// Adjacent returns the in-bounds neighbors of p (8-directional).
func (m *Map) Adjacent(p Position) []Position {
	out := make([]Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Position{X: p.X + dx, Y: p.Y + dy}
			if m.InBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// IsCoastal reports whether p is a land tile adjacent to at least one
// ocean tile.
func (m *Map) IsCoastal(p Position) bool {
	if m.TileAt(p).Terrain.Ocean {
		return false
	}
	for _, n := range m.Adjacent(p) {
		if m.TileAt(n).Terrain.Ocean {
			return true
		}
	}
	return false
}

// AssignContinents flood-fills continent ids over connected land tiles.
// Ocean tiles keep continent 0.
//
// Postcondition: two land tiles share a continent id iff they are
// 8-connected through land.
func (m *Map) AssignContinents() {
	for i := range m.tiles {
		m.tiles[i].Continent = 0
	}
	next := 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			p := Position{X: x, Y: y}
			t := m.TileAt(p)
			if t.Terrain.Ocean || t.Continent != 0 {
				continue
			}
			next++
			m.floodFill(p, next)
		}
	}
}

func (m *Map) floodFill(start Position, id int) {
	stack := []Position{start}
	m.TileAt(start).Continent = id
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range m.Adjacent(p) {
			t := m.TileAt(n)
			if t.Terrain.Ocean || t.Continent != 0 {
				continue
			}
			t.Continent = id
			stack = append(stack, n)
		}
	}
}

// Distance returns the Chebyshev distance between a and b, the number of
// 8-directional steps separating them.
func Distance(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
