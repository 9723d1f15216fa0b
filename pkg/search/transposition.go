// Package search contains the best-reply search engine and its supporting
// tables.
package search

import (
	"fmt"

	"github.com/herohde/beagle/pkg/board"
)

// Entry is a transposition table entry: cached score bounds and the best move
// for a position hash. Depth is the absolute search horizon (turn + remaining
// depth), so entries from earlier turns lose priority naturally. Age is the
// turn at store time. 32 bytes.
type Entry struct {
	Move         board.Move
	Hash         uint64
	Lower, Upper int32
	Depth, Age   uint16
}

// Table is a fixed-size transposition table with two buckets per index: a
// depth-preferred bucket that only yields to entries at least as deep or much
// younger,
// and an always-replace bucket for everything else. Probes match on the full
// 64-bit hash; no further verification is done, as collisions only cost
// playing strength. Not thread-safe.
type Table struct {
	n         uint64
	depthpref []Entry
	always    []Entry
}

// NewTable creates a table with the given total entry count, split evenly
// between the two buckets. The count must be even and positive.
func NewTable(entries uint64) (*Table, error) {
	if entries == 0 || entries%2 == 1 {
		return nil, fmt.Errorf("table entry count must be even and positive: %v", entries)
	}

	n := entries / 2
	return &Table{
		n:         n,
		depthpref: make([]Entry, n),
		always:    make([]Entry, n),
	}, nil
}

// Probe returns the entry for the given hash, if present. The depth-preferred
// bucket wins if both match.
func (t *Table) Probe(hash uint64) (Entry, bool) {
	idx := hash % t.n

	if t.depthpref[idx].Hash == hash {
		return t.depthpref[idx], true
	}
	if t.always[idx].Hash == hash {
		return t.always[idx], true
	}
	return Entry{}, false
}

// Store writes the entry. It lands in the depth-preferred bucket if at least
// as deep as the incumbent or if the incumbent is more than 15 turns stale;
// otherwise it overwrites the always-replace bucket unconditionally.
func (t *Table) Store(e Entry) {
	idx := e.Hash % t.n

	if t.depthpref[idx].Depth <= e.Depth || t.depthpref[idx].Age+15 < e.Age {
		t.depthpref[idx] = e
		return
	}
	t.always[idx] = e
}
