package board

import "math/rand"

// MaxBoardSize is the largest board edge the key table supports.
const MaxBoardSize = 35

// ZobristTable is a pseudo-randomized key table for computing a board hash
// incrementally: the hash of a board is the XOR over all cells of the key for
// the (cell index, tile code) pair.
//
// See also: https://research.cs.wisc.edu/techreports/1970/TR88.pdf.
type ZobristTable struct {
	keys [NumTiles * MaxBoardSize * MaxBoardSize]uint64
}

func NewZobristTable(seed int64) *ZobristTable {
	ret := &ZobristTable{}

	r := rand.New(rand.NewSource(seed))
	for i := range ret.keys {
		ret.keys[i] = r.Uint64()
	}
	return ret
}

// Key returns the key for the given cell index and tile.
func (z *ZobristTable) Key(idx int, t Tile) uint64 {
	return z.keys[NumTiles*idx+int(t)]
}

// zobrist is the process-wide key table. It is seeded deterministically so
// that hashes are reproducible across runs and in tests, and is read-only
// after initialization.
var zobrist = NewZobristTable(0)
