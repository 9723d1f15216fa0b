// beagle is a Vindinium bot built around best-reply search with MTD-f.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/herohde/beagle/pkg/board"
	"github.com/herohde/beagle/pkg/client"
	"github.com/herohde/beagle/pkg/search"
	"github.com/seekerror/logw"
)

var (
	key     = flag.String("key", "", "Bot API key (required)")
	server  = flag.String("server", client.DefaultServer, "Vindinium server URL")
	arena   = flag.Bool("arena", false, "Play a ranked arena game instead of training")
	turns   = flag.Int("turns", 0, "Training game length (zero for server default)")
	mapName = flag.String("map", "", "Training map name (empty for server default)")
	budget  = flag.Duration("budget", 750*time.Millisecond, "Per-turn search budget")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: beagle -key <apikey> [options]

beagle plays Vindinium (vindinium.org), a four-player rogue-like in which
heroes capture gold mines, fight each other and heal at taverns. Moves are
chosen by an iteratively deepened best-reply search within a fixed per-turn
time budget.

Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if *key == "" {
		flag.Usage()
		logw.Exitf(ctx, "No API key given")
	}

	bot := search.New(search.WithBudget(*budget))
	c := client.New(*server, *key)

	logw.Infof(ctx, "%v connecting to %v", bot.Name(), *server)

	var state *board.State
	var err error
	if *arena {
		state, err = c.StartArena(ctx)
	} else {
		state, err = c.StartTraining(ctx, *turns, *mapName)
	}
	if err != nil {
		logw.Exitf(ctx, "Failed to start game: %v", err)
	}

	logw.Infof(ctx, "Game started: %v", state.ViewURL)

	for {
		d := bot.ChooseMove(ctx, state)
		logw.Infof(ctx, "Turn %v: %v (life=%v, gold=%v)", state.Game.Turn, d, state.Hero.Life, state.Hero.Gold)

		next, err := c.Play(ctx, state.PlayURL, d)
		if err != nil {
			logw.Exitf(ctx, "Failed to play turn %v: %v", state.Game.Turn, err)
		}
		if next.Game.Finished {
			state = next
			break
		}

		state = resync(ctx, state, next, d)
	}

	logw.Infof(ctx, "Game over: %v", state.ViewURL)
	for i := range state.Game.Heroes {
		h := &state.Game.Heroes[i]
		logw.Infof(ctx, "  %v: gold=%v", h.Name, h.Gold)
	}
}

// resync advances the local state to match the server's snapshot. If no
// hero's crashed flag changed, the server's reported moves are replayed
// locally so the board's path cache stays warm; if any crashed flag changed,
// the snapshot is adopted wholesale instead.
func resync(ctx context.Context, state, next *board.State, played board.Direction) *board.State {
	for i := range state.Game.Heroes {
		if state.Game.Heroes[i].Crashed != next.Game.Heroes[i].Crashed {
			return next
		}
	}

	state.MakeMove(played)
	hIdx := next.Game.Turn % 4
	for i := 1; i < 4; i++ {
		d, err := board.ParseDirection(next.Game.Heroes[(hIdx+i)%4].LastDir)
		if err != nil {
			logw.Warningf(ctx, "Unparseable move for hero %v: %v", (hIdx+i)%4+1, err)
			d = board.Stay
		}
		state.MakeMove(d)
	}

	// The replay should land exactly on the server's snapshot; if not, adopt
	// the snapshot and pay for a cold path cache.
	for i := range state.Game.Heroes {
		if !state.Game.Heroes[i].EqualState(&next.Game.Heroes[i]) {
			logw.Warningf(ctx, "Replay diverged from server for hero %v; resetting", i+1)
			return next
		}
	}
	return state
}
