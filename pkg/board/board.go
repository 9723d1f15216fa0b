package board

import (
	"fmt"
	"strings"

	"github.com/seekerror/stdlib/pkg/lang"
)

// unreachable is the BFS distance for cells with no path from the source.
const unreachable uint8 = 255

// Board represents the game grid. Topology (walls, taverns, mine locations)
// is fixed for the whole match; only mine ownership and hero tiles change.
// The shortest-path cache relies on that invariant and is never invalidated.
// Not thread-safe.
type Board struct {
	Size  int    `json:"size"`
	Tiles string `json:"tiles"`

	cells       []Tile
	initialized bool

	minePos   []Position
	tavernPos []Position

	hash uint64

	// paths[i] is the lazily computed BFS distance tree from cell i to
	// every other cell, or nil if not yet requested.
	paths [][]uint8
}

// Initialize parses the wire tile string into cells, collects mine and tavern
// positions and accumulates the Zobrist hash. Must be called once before any
// other operation.
func (b *Board) Initialize() error {
	n := b.Size * b.Size
	if len(b.Tiles) != 2*n {
		return fmt.Errorf("%w: tile string length %v for size %v", ErrMalformedTile, len(b.Tiles), b.Size)
	}

	b.cells = make([]Tile, n)
	b.minePos = nil
	b.tavernPos = nil
	b.hash = 0
	b.paths = make([][]uint8, n)

	for i := 0; i < n; i++ {
		t, err := ParseTile(b.Tiles[2*i], b.Tiles[2*i+1])
		if err != nil {
			return fmt.Errorf("cell %v: %w", i, err)
		}
		b.cells[i] = t
		b.hash ^= zobrist.Key(i, t)

		pos := Position{X: int8(i / b.Size), Y: int8(i % b.Size)}
		switch {
		case t.IsMine():
			b.minePos = append(b.minePos, pos)
		case t == Tavern:
			b.tavernPos = append(b.tavernPos, pos)
		}
	}

	b.initialized = true
	return nil
}

// Hash returns the Zobrist hash over all cells. Maintained incrementally by
// every mutation.
func (b *Board) Hash() uint64 {
	return b.hash
}

// MinePositions returns the positions of all mine cells. Immutable after
// Initialize.
func (b *Board) MinePositions() []Position {
	return b.minePos
}

// TavernPositions returns the positions of all tavern cells. Immutable after
// Initialize.
func (b *Board) TavernPositions() []Position {
	return b.tavernPos
}

func (b *Board) walkable(pos Position) bool {
	t := b.cells[b.index(pos)]
	return t == Air || t.IsHero()
}

func (b *Board) inBounds(pos Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && int(pos.X) < b.Size && int(pos.Y) < b.Size
}

func (b *Board) index(pos Position) int {
	return int(pos.X)*b.Size + int(pos.Y)
}

// TileAt returns the tile at the given position, or Wall if out of bounds.
func (b *Board) TileAt(pos Position) Tile {
	if !b.inBounds(pos) {
		return Wall
	}
	return b.cells[b.index(pos)]
}

// PutTile writes the tile at the given position and maintains the hash. The
// position must be in bounds.
func (b *Board) PutTile(pos Position, t Tile) {
	idx := b.index(pos)
	b.hash ^= zobrist.Key(idx, b.cells[idx])
	b.cells[idx] = t
	b.hash ^= zobrist.Key(idx, t)
}

// ShortestPathLength returns the BFS walking distance between two positions,
// or 255 if unreachable. Paths traverse Air and Hero cells; a Tavern or Mine
// is assigned a distance when adjacent to the path but is never walked
// through. Distances between walkable cells are symmetric, so a cached tree
// rooted at either walkable endpoint answers the query. A Wall, Tavern or
// Mine source only has its trivial tree: every other cell is 255 from it.
func (b *Board) ShortestPathLength(from, to Position) uint8 {
	if !b.inBounds(from) || !b.inBounds(to) {
		return unreachable
	}
	// Terminal sources always answer from their own trivial tree. For
	// walkable sources, a cached walkable-rooted tree for either endpoint
	// answers the query; a terminal-rooted tree cannot, as paths end at
	// terminal cells rather than leave them.
	if !b.walkable(from) {
		return b.pathTree(from)[b.index(to)]
	}
	if tree := b.paths[b.index(to)]; tree != nil && b.walkable(to) {
		return tree[b.index(from)]
	}
	return b.pathTree(from)[b.index(to)]
}

// pathTree returns the BFS distance tree from the given in-bounds source,
// computing and caching it on first use.
func (b *Board) pathTree(from Position) []uint8 {
	src := b.index(from)
	if tree := b.paths[src]; tree != nil {
		return tree
	}

	tree := make([]uint8, len(b.cells))
	for i := range tree {
		tree[i] = unreachable
	}
	tree[src] = 0
	b.paths[src] = tree

	switch t := b.cells[src]; {
	case t == Wall, t == Tavern, t.IsMine():
		return tree // terminal source: no expansion
	}

	queue := make([]Position, 0, len(b.cells))
	queue = append(queue, from)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := tree[b.index(cur)]

		for _, next := range cur.Neighbors() {
			if !b.inBounds(next) {
				continue
			}
			idx := b.index(next)
			if tree[idx] != unreachable {
				continue
			}
			switch t := b.cells[idx]; {
			case t == Air || t.IsHero():
				tree[idx] = d + 1
				queue = append(queue, next)
			case t == Tavern || t.IsMine():
				tree[idx] = d + 1 // terminal: labeled but not expanded
			}
		}
	}
	return tree
}

// DirectionTo returns the compass direction that most reduces the path length
// towards the target, breaking ties in compass order. Stay if no direction
// improves on the current distance.
func (b *Board) DirectionTo(from, to Position) Direction {
	best := b.ShortestPathLength(from, to)
	ret := Stay

	for _, d := range Compass {
		next := from.Neighbor(d)
		if !b.inBounds(next) {
			continue
		}
		if dist := b.ShortestPathLength(next, to); dist < best {
			best = dist
			ret = d
		}
	}
	return ret
}

// ClosestTavern returns the distance to and position of the nearest tavern.
// The distance is 255 if no tavern is reachable.
func (b *Board) ClosestTavern(from Position) (uint8, Position) {
	best := unreachable
	var ret Position

	for _, pos := range b.tavernPos {
		if d := b.ShortestPathLength(from, pos); d < best {
			best = d
			ret = pos
		}
	}
	return best, ret
}

// ClosestMine returns the distance to and position of the nearest mine not
// owned by the given hero. The distance is 255 and the position absent if no
// such mine is reachable.
func (b *Board) ClosestMine(from Position, heroID int) (uint8, lang.Optional[Position]) {
	best := unreachable
	var ret lang.Optional[Position]

	for _, pos := range b.minePos {
		if b.TileAt(pos).MineOwner() == heroID {
			continue
		}
		if d := b.ShortestPathLength(from, pos); d < best {
			best = d
			ret = lang.Some(pos)
		}
	}
	return best, ret
}

// String renders the board with its two-character glyphs, one row per line.
func (b *Board) String() string {
	var sb strings.Builder
	for x := 0; x < b.Size; x++ {
		for y := 0; y < b.Size; y++ {
			sb.WriteString(b.cells[x*b.Size+y].String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
