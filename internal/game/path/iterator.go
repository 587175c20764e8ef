// Package path provides the shortest-path map iterator: a lazily expanded
// Dijkstra search that yields reachable tiles in non-decreasing cumulative
// move cost. Callers may stop consuming at any point and must Close the
// iterator when done.
package path

import (
	"container/heap"

	"github.com/tmaynard/warcouncil/internal/game/rules"
	"github.com/tmaynard/warcouncil/internal/game/world"
)

// MoveParams describes the mover for cost and passability purposes.
type MoveParams struct {
	Class    rules.UnitClass
	MoveRate int // full move points per turn
}

// Step is one yielded tile with its cumulative cost in move fragments.
type Step struct {
	Pos  world.Position
	Cost int
}

type node struct {
	pos  world.Position
	cost int
	prev int // index into visited; -1 for the start node
}

type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return n
}

// Iterator walks reachable tiles outward from a start position.
//
// Invariant: successive Next calls yield non-decreasing Cost.
type Iterator struct {
	m        *world.Map
	params   MoveParams
	frontier nodeHeap
	best     map[world.Position]int // cheapest queued or settled cost per tile
	settled  map[world.Position]int // pos -> index into visited
	visited  []*node
	closed   bool
}

// NewIterator starts a search from start for the given mover. The caller
// owns the Iterator and must call Close when done.
//
// Precondition: m must be non-nil and start in bounds.
func NewIterator(m *world.Map, start world.Position, params MoveParams) *Iterator {
	if m == nil {
		panic("path.NewIterator: precondition violated: map must be non-nil")
	}
	it := &Iterator{
		m:       m,
		params:  params,
		best:    make(map[world.Position]int),
		settled: make(map[world.Position]int),
	}
	it.best[start] = 0
	heap.Push(&it.frontier, &node{pos: start, cost: 0, prev: -1})
	return it
}

// Next yields the next-cheapest reachable tile. The start tile comes first
// with cost 0. Returns false when the reachable set is exhausted or the
// iterator is closed.
//
// Postcondition: costs are non-decreasing across calls.
func (it *Iterator) Next() (Step, bool) {
	if it.closed {
		return Step{}, false
	}
	for it.frontier.Len() > 0 {
		n := heap.Pop(&it.frontier).(*node)
		if _, done := it.settled[n.pos]; done {
			continue
		}
		it.visited = append(it.visited, n)
		it.settled[n.pos] = len(it.visited) - 1
		it.expand(n)
		return Step{Pos: n.pos, Cost: n.cost}, true
	}
	return Step{}, false
}

func (it *Iterator) expand(n *node) {
	selfIdx := it.settled[n.pos]
	for _, adj := range it.m.Adjacent(n.pos) {
		if !it.passable(adj) {
			continue
		}
		cost := n.cost + it.enterCost(adj)
		if prev, seen := it.best[adj]; seen && prev <= cost {
			continue
		}
		it.best[adj] = cost
		heap.Push(&it.frontier, &node{pos: adj, cost: cost, prev: selfIdx})
	}
}

func (it *Iterator) passable(p world.Position) bool {
	ocean := it.m.TileAt(p).Terrain.Ocean
	switch it.params.Class {
	case rules.ClassLand:
		return !ocean
	case rules.ClassSea:
		// Sea movers may end on a coastal city tile; plain land is out.
		return ocean || it.m.TileAt(p).CityID != ""
	default: // air
		return true
	}
}

// enterCost returns the fragment cost of entering p for this mover.
// Terrain cost applies to land movers only; sea and air pay the base cost.
func (it *Iterator) enterCost(p world.Position) int {
	if it.params.Class == rules.ClassLand {
		c := it.m.TileAt(p).Terrain.MoveCost
		if c < 1 {
			c = 1
		}
		return c
	}
	return world.MoveCostBase
}

// PathTo materializes the concrete position sequence from the start to a
// previously yielded tile, start excluded, destination included.
//
// Postcondition: returns nil when pos has not been yielded by Next yet.
func (it *Iterator) PathTo(pos world.Position) []world.Position {
	idx, ok := it.settled[pos]
	if !ok {
		return nil
	}
	var rev []world.Position
	for i := idx; i >= 0; i = it.visited[i].prev {
		rev = append(rev, it.visited[i].pos)
	}
	out := make([]world.Position, 0, len(rev)-1)
	for i := len(rev) - 2; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

// Close releases the iterator's internal state. Idempotent; Next returns
// false after Close.
func (it *Iterator) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.frontier = nil
	it.best = nil
}
