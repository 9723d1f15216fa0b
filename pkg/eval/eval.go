// Package eval contains leaf evaluation logic for the search engine.
package eval

import (
	"context"
	"math"

	"github.com/herohde/beagle/pkg/board"
)

// Evaluator is a static position evaluator. The score is from the point of
// view of the state's own hero: positive favors it.
type Evaluator interface {
	// Evaluate returns the position score for the state's hero.
	Evaluate(ctx context.Context, s *board.State) int32
}

// GoldRank scores a position by each hero's predicted end-of-game gold,
// adjusted by an ELO-based expectation of the final ranking. A hero's
// prediction assumes it keeps its current mines for the remaining turns:
//
//	pred = 10*(gold + mines*turnsLeft) + life
//
// The searching hero is additionally credited for how soon it can put one
// more mine into production, routing via a tavern when capturing at current
// life would be fatal.
type GoldRank struct{}

func (GoldRank) Evaluate(ctx context.Context, s *board.State) int32 {
	turnsLeft := (s.Game.MaxTurns - s.Game.Turn) / 4

	var pred [5]int
	for i := range s.Game.Heroes {
		h := &s.Game.Heroes[i]
		pred[h.ID] = 10*(h.Gold+h.MineCount*turnsLeft) + h.Life
	}

	pred[s.Hero.ID] += productionBonus(s, turnsLeft)

	// Pairwise ELO expectation: rank credit for outscoring a stronger
	// opponent, debit for losing to a weaker one.
	var rank float64
	self := &s.Hero
	q := math.Pow(10, float64(self.Elo)/400)
	for i := range s.Game.Heroes {
		enemy := &s.Game.Heroes[i]
		if enemy.ID == self.ID {
			continue
		}

		qe := math.Pow(10, float64(enemy.Elo)/400)
		expected := q / (q + qe)

		actual := 1.0
		switch {
		case pred[self.ID] < pred[enemy.ID]:
			actual = 0.0
		case pred[self.ID] == pred[enemy.ID]:
			actual = 0.5
		}
		rank += 16 * (actual - expected)
	}

	ev := 0
	for i := range s.Game.Heroes {
		if s.Game.Heroes[i].ID == self.ID {
			ev += pred[self.ID]
		} else {
			ev -= pred[s.Game.Heroes[i].ID]
		}
	}
	return int32(float64(ev) + 10000*rank)
}

// productionBonus credits the remaining turns after the hero could have one
// more mine producing. Capturing costs 20 life, so a hero that would arrive
// at 20 or less detours through the nearest tavern first.
func productionBonus(s *board.State, turnsLeft int) int {
	b := &s.Game.Board
	mdist, _ := b.ClosestMine(s.Hero.Pos, s.Hero.ID)

	var delay int
	switch {
	case mdist == 255:
		delay = turnsLeft
	case s.Hero.Life < int(mdist) || s.Hero.Life-int(mdist) <= 20:
		tdist, tpos := b.ClosestTavern(s.Hero.Pos)
		mdist2, _ := b.ClosestMine(tpos, s.Hero.ID)
		delay = 2 + int(tdist) + int(mdist2)
	default:
		delay = int(mdist)
	}

	if delay < turnsLeft {
		return turnsLeft - delay
	}
	return 0
}
