package board

import "fmt"

// TileDelta records a single board cell overwrite for undo.
type TileDelta struct {
	Pos  Position
	Tile Tile
}

// UnmakeInfo captures everything MakeMove changed: a snapshot of all four
// heroes and the board cells overwritten, in write order. Consumed exactly
// once by UnmakeMove.
type UnmakeInfo struct {
	heroes [4]Hero
	deltas []TileDelta
}

// State is the full game state seen by one bot: the game plus a cached copy
// of its own hero, kept consistent after every move.
type State struct {
	Game    Game   `json:"game"`
	Hero    Hero   `json:"hero"`
	Token   string `json:"token"`
	ViewURL string `json:"viewUrl"`
	PlayURL string `json:"playUrl"`
}

// Hash returns a position hash for transposition lookups: the board's
// Zobrist hash folded with the turn counter and the gameplay fields of all
// four heroes, using 64-bit FNV-1a.
func (s *State) Hash() uint64 {
	h := uint64(14695981039346656037)
	fold := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}

	fold(uint64(s.Game.Turn))
	for i := range s.Game.Heroes {
		hero := &s.Game.Heroes[i]
		fold(uint64(uint8(hero.Pos.X))<<8 | uint64(uint8(hero.Pos.Y)))
		fold(uint64(hero.Life))
		fold(uint64(hero.Gold))
		fold(uint64(hero.MineCount))
		if hero.Crashed {
			fold(1)
		}
	}
	return h ^ s.Game.Board.Hash()
}

// GetMoves returns the legal directions for the hero to move. Crashed heroes
// can only Stay; past the last turn there are no moves at all.
func (s *State) GetMoves() []Direction {
	if s.Game.Turn > s.Game.MaxTurns {
		return nil
	}

	h := &s.Game.Heroes[s.Game.Turn%4]
	if h.Crashed {
		return []Direction{Stay}
	}

	ret := make([]Direction, 0, 5)
	for _, d := range Compass {
		switch t := s.Game.Board.TileAt(h.Pos.Neighbor(d)); {
		case t == Air:
			ret = append(ret, d)
		case t.IsMine() && t.MineOwner() != h.ID:
			ret = append(ret, d)
		case t == Tavern && h.Gold >= 2:
			ret = append(ret, d)
		}
	}
	return append(ret, Stay)
}

// setTile overwrites a board cell, recording the previous content for undo.
func (s *State) setTile(pos Position, t Tile, umi *UnmakeInfo) {
	umi.deltas = append(umi.deltas, TileDelta{Pos: pos, Tile: s.Game.Board.TileAt(pos)})
	s.Game.Board.PutTile(pos, t)
}

// kill moves the given hero back to its spawn with full life. Its mines
// transfer to the killer (or revert to unowned for environmental deaths) and
// any hero standing on the spawn cell is killed in turn. The recursion is
// bounded by the number of heroes.
func (s *State) kill(heroID, killerID int, umi *UnmakeInfo) {
	victim := &s.Game.Heroes[heroID-1]

	if killerID > 0 {
		s.Game.Heroes[killerID-1].MineCount += victim.MineCount
	}
	victim.MineCount = 0

	for _, pos := range s.Game.Board.MinePositions() {
		if t := s.Game.Board.TileAt(pos); t.IsMine() && t.MineOwner() == heroID {
			s.setTile(pos, MineTile(killerID), umi)
		}
	}

	for i := 1; i < 4; i++ {
		other := &s.Game.Heroes[(heroID-1+i)%4]
		if other.Pos == victim.SpawnPos {
			s.kill(other.ID, heroID, umi)
		}
	}

	s.setTile(victim.Pos, Air, umi)
	s.setTile(victim.SpawnPos, HeroTile(heroID), umi)
	victim.Pos = victim.SpawnPos
	victim.Life = 100
}

// MakeMove applies a direction for the hero to move and advances the turn.
// The returned UnmakeInfo restores the state exactly, hash included.
func (s *State) MakeMove(d Direction) UnmakeInfo {
	hIdx := s.Game.Turn % 4
	h := &s.Game.Heroes[hIdx]
	umi := UnmakeInfo{heroes: s.Game.Heroes}
	died := false

	switch t := s.Game.Board.TileAt(h.Pos.Neighbor(d)); {
	case t == Wall || t.IsHero():
		// blocked

	case t == Tavern:
		if h.Gold >= 2 {
			h.Gold -= 2
			h.Life += 50
			if h.Life > 100 {
				h.Life = 100
			}
		}

	case t == Air:
		target := h.Pos.Neighbor(d)
		s.setTile(h.Pos, Air, &umi)
		s.setTile(target, HeroTile(h.ID), &umi)
		h.Pos = target

	case t.IsMine():
		if owner := t.MineOwner(); owner != h.ID {
			if h.Life <= 20 {
				died = true
				s.kill(h.ID, 0, &umi)
			} else {
				if owner > 0 {
					s.Game.Heroes[owner-1].MineCount--
				}
				h.MineCount++
				h.Life -= 20
				s.setTile(h.Pos.Neighbor(d), MineTile(h.ID), &umi)
			}
		}
	}

	// A hero that died on a mine spike deals no contact damage this turn.
	if !died {
		for i := range s.Game.Heroes {
			if i == hIdx {
				continue
			}
			other := &s.Game.Heroes[i]
			if other.Pos.ManhattanDistance(h.Pos) == 1 {
				if other.Life <= 20 {
					s.kill(other.ID, h.ID, &umi)
				} else {
					other.Life -= 20
				}
			}
		}
	}

	h.Gold += h.MineCount

	if h.Life > 1 {
		h.Life--
	}

	h.LastDir = d.String()
	s.Hero = s.Game.Heroes[s.Hero.ID-1]
	s.Game.Turn++
	if s.Game.Turn == s.Game.MaxTurns {
		s.Game.Finished = true
	}

	return umi
}

// UnmakeMove undoes the matching MakeMove: it restores the hero snapshot and
// replays the recorded tile deltas in reverse order, restoring the board and
// its hash bit-for-bit.
func (s *State) UnmakeMove(umi UnmakeInfo) {
	s.Game.Finished = false
	s.Game.Turn--
	s.Game.Heroes = umi.heroes
	s.Hero = s.Game.Heroes[s.Hero.ID-1]

	for i := len(umi.deltas) - 1; i >= 0; i-- {
		s.Game.Board.PutTile(umi.deltas[i].Pos, umi.deltas[i].Tile)
	}
}

// Validate checks the snapshot's hero ids.
func (s *State) Validate() error {
	for i := range s.Game.Heroes {
		if err := s.Game.Heroes[i].Validate(); err != nil {
			return err
		}
		if s.Game.Heroes[i].ID != i+1 {
			return fmt.Errorf("%w: hero %v in slot %v", ErrBadHeroID, s.Game.Heroes[i].ID, i)
		}
	}
	return s.Hero.Validate()
}
