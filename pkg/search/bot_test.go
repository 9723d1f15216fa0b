package search_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/herohde/beagle/pkg/board"
	"github.com/herohde/beagle/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchRows is a 5x5 arena with a free mine two cells east of hero 1 and a
// tavern.
var searchRows = []string{
	"@1  $-    ",
	"          ",
	"    @2    ",
	"[]      @3",
	"@4        ",
}

func mustState(t *testing.T, rows []string, heroes [4]board.Hero, turn, maxTurns, heroID int) *board.State {
	t.Helper()

	s := &board.State{
		Game: board.Game{
			ID:       "test",
			Turn:     turn,
			MaxTurns: maxTurns,
			Heroes:   heroes,
			Board:    board.Board{Size: len(rows), Tiles: strings.Join(rows, "")},
		},
	}
	require.NoError(t, s.Game.Board.Initialize())

	for i := range s.Game.Heroes {
		h := &s.Game.Heroes[i]
		h.ID = i + 1
		if h.Life == 0 {
			h.Life = 100
		}
		if (h.SpawnPos == board.Position{}) {
			h.SpawnPos = h.Pos
		}
	}
	s.Hero = s.Game.Heroes[heroID-1]
	return s
}

func searchHeroes() [4]board.Hero {
	return [4]board.Hero{
		{Pos: board.Position{X: 0, Y: 0}, Elo: 1200},
		{Pos: board.Position{X: 2, Y: 2}, Elo: 1200},
		{Pos: board.Position{X: 3, Y: 4}, Elo: 1200},
		{Pos: board.Position{X: 4, Y: 0}, Elo: 1200},
	}
}

func TestChooseMoveDeadlineFallback(t *testing.T) {
	ctx := context.Background()
	s := mustState(t, searchRows, searchHeroes(), 0, 100, 1)

	before := *s
	tiles := s.Game.Board.String()
	hash := s.Game.Board.Hash()

	bot := search.New(search.WithBudget(time.Nanosecond), search.WithTableEntries(1024))
	d := bot.ChooseMove(ctx, s)

	assert.Equal(t, board.Stay, d)
	assert.Equal(t, before.Game.Turn, s.Game.Turn)
	assert.Equal(t, before.Game.Heroes, s.Game.Heroes)
	assert.Equal(t, before.Hero, s.Hero)
	assert.Equal(t, tiles, s.Game.Board.String())
	assert.Equal(t, hash, s.Game.Board.Hash())
}

func TestChooseMoveDeadlineObedience(t *testing.T) {
	ctx := context.Background()
	s := mustState(t, searchRows, searchHeroes(), 0, 100, 1)

	budget := 100 * time.Millisecond
	bot := search.New(search.WithBudget(budget), search.WithTableEntries(4096))

	start := time.Now()
	bot.ChooseMove(ctx, s)
	assert.Less(t, time.Since(start), budget+250*time.Millisecond)
}

func TestChooseMoveRestoresState(t *testing.T) {
	ctx := context.Background()
	s := mustState(t, searchRows, searchHeroes(), 0, 100, 1)

	before := *s
	tiles := s.Game.Board.String()
	hash := s.Game.Board.Hash()

	bot := search.New(search.WithBudget(50*time.Millisecond), search.WithTableEntries(4096))
	bot.ChooseMove(ctx, s)

	assert.Equal(t, before.Game.Turn, s.Game.Turn)
	assert.Equal(t, before.Game.Finished, s.Game.Finished)
	assert.Equal(t, before.Game.Heroes, s.Game.Heroes)
	assert.Equal(t, tiles, s.Game.Board.String())
	assert.Equal(t, hash, s.Game.Board.Hash())
}

func TestChooseMoveIsLegal(t *testing.T) {
	ctx := context.Background()
	s := mustState(t, searchRows, searchHeroes(), 0, 100, 1)

	bot := search.New(search.WithBudget(100*time.Millisecond), search.WithTableEntries(4096))
	d := bot.ChooseMove(ctx, s)

	assert.Contains(t, s.GetMoves(), d)
}

func TestChooseMoveCapturesFreeMine(t *testing.T) {
	ctx := context.Background()

	// The mine two steps east dominates every alternative; any two
	// completed iterations agree on the first step towards it.
	s := mustState(t, searchRows, searchHeroes(), 0, 100, 1)

	bot := search.New(search.WithBudget(200*time.Millisecond), search.WithTableEntries(1<<16))
	d := bot.ChooseMove(ctx, s)

	assert.Equal(t, board.East, d)
}
