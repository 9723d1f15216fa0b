package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/herohde/beagle/pkg/board"
	"github.com/herohde/beagle/pkg/eval"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 3, 0)

// ErrDeadline is an error indicating that the search ran out of time. It is
// internal to the iterative-deepening loop and never escapes ChooseMove.
var ErrDeadline = errors.New("search deadline exceeded")

const (
	// maxSearchDepth bounds iterative deepening.
	maxSearchDepth = 32

	// defaultBudget is the per-turn wall-clock budget. The server allows
	// about a second; the lower bound leaves headroom for the reply
	// round-trip.
	defaultBudget = 750 * time.Millisecond

	// defaultTableEntries is the total transposition table size.
	defaultTableEntries = 2000000
)

// MaxKey is the move-ordering history key for the bot's own moves.
type MaxKey struct {
	Pos board.Position
	Dir board.Direction
}

// MinKey is the move-ordering history key for opponent moves.
type MinKey struct {
	Player uint8
	Pos    board.Position
	Dir    board.Direction
}

func maxSentinel() MaxKey {
	return MaxKey{Pos: board.Position{X: -1, Y: -1}, Dir: board.Stay}
}

func minSentinel() MinKey {
	return MinKey{Player: 4, Pos: board.Position{X: -1, Y: -1}, Dir: board.Stay}
}

// Bot is the search engine: a best-reply alpha/beta search driven by MTD-f
// under iterative deepening, with a transposition table, killer moves and an
// LRU move-ordering history. The histories and killers live here rather than
// in the state so they survive across iterations and are cleared deliberately
// at the start of each turn. Not thread-safe.
type Bot struct {
	evaluator eval.Evaluator
	tt        *Table

	maxHistory *LRU[MaxKey]
	minHistory *LRU[MinKey]
	killers    [maxSearchDepth + 1][2]board.Move

	budget      time.Duration
	initialized bool
}

// Option is a Bot creation option.
type Option func(*Bot)

// WithBudget sets the per-turn wall-clock budget.
func WithBudget(d time.Duration) Option {
	return func(b *Bot) {
		b.budget = d
	}
}

// WithEvaluator sets the leaf evaluator.
func WithEvaluator(e eval.Evaluator) Option {
	return func(b *Bot) {
		b.evaluator = e
	}
}

// WithTableEntries sets the total transposition table entry count.
func WithTableEntries(n uint64) Option {
	return func(b *Bot) {
		tt, err := NewTable(n)
		if err != nil {
			panic(err)
		}
		b.tt = tt
	}
}

// New returns a Bot with the given options applied over the defaults.
func New(opts ...Option) *Bot {
	b := &Bot{
		evaluator:  eval.GoldRank{},
		budget:     defaultBudget,
		maxHistory: NewLRU(maxSentinel()),
		minHistory: NewLRU(minSentinel()),
	}
	b.tt, _ = NewTable(defaultTableEntries)

	for _, fn := range opts {
		fn(b)
	}
	return b
}

// Name returns the engine name and version.
func (b *Bot) Name() string {
	return fmt.Sprintf("beagle %v", version)
}

// initialize performs one-time per-match work: it warms the board's
// shortest-path trees from every spawn point so the first search turn does
// not pay for them.
func (b *Bot) initialize(ctx context.Context, s *board.State) {
	for i := range s.Game.Heroes {
		spawn := s.Game.Heroes[i].SpawnPos
		s.Game.Board.ShortestPathLength(spawn, spawn)
	}
	b.initialized = true
	logw.Infof(ctx, "%v initialized: %v, board %vx%v", b.Name(), &s.Game, s.Game.Board.Size, s.Game.Board.Size)
}

// generateMoves expands the best-reply tree at the current state. At a MAX
// node (the bot to move) each legal direction is one move. At a MIN node only
// one of the three opponents acts; the generator enumerates each opponent's
// non-Stay directions in turn order, advancing the turn pointer between
// groups with Stay moves and undoing them, plus an all-pass fallback.
func (b *Bot) generateMoves(s *board.State) []board.Move {
	ret := make([]board.Move, 0, 12)

	if s.Game.Heroes[s.Game.Turn%4].ID == s.Hero.ID {
		for _, d := range s.GetMoves() {
			ret = append(ret, board.Move{
				Player:     0,
				Directions: [4]board.Direction{d, board.Stay, board.Stay, board.Stay},
			})
		}
		return ret
	}

	for _, d := range s.GetMoves() {
		if d != board.Stay {
			ret = append(ret, board.Move{
				Player:     1,
				Directions: [4]board.Direction{board.Stay, d, board.Stay, board.Stay},
			})
		}
	}

	umi := s.MakeMove(board.Stay)
	for _, d := range s.GetMoves() {
		if d != board.Stay {
			ret = append(ret, board.Move{
				Player:     2,
				Directions: [4]board.Direction{board.Stay, board.Stay, d, board.Stay},
			})
		}
	}
	s.UnmakeMove(umi)

	umi = s.MakeMove(board.Stay)
	umi2 := s.MakeMove(board.Stay)
	for _, d := range s.GetMoves() {
		if d != board.Stay {
			ret = append(ret, board.Move{
				Player:     3,
				Directions: [4]board.Direction{board.Stay, board.Stay, board.Stay, d},
			})
		}
	}
	s.UnmakeMove(umi2)
	s.UnmakeMove(umi)

	return append(ret, board.Move{
		Player:     1,
		Directions: [4]board.Direction{board.Stay, board.Stay, board.Stay, board.Stay},
	})
}

// pickNextMove pops the highest-priority remaining move: the hash move, then
// killers at this depth, then any real move over the all-Stay default, with
// LRU history recency breaking ties within a class.
func (b *Bot) pickNextMove(depth int, hashMove board.Move, moves *[]board.Move, s *board.State) board.Move {
	list := *moves
	if len(list) == 0 {
		return board.NoMove()
	}

	none := board.NoMove()
	bestScore := uint32(0)
	bestIdx := 0

	for i, mv := range list {
		if mv.Equals(hashMove) && !hashMove.Equals(none) {
			bestIdx = i
			break
		}

		var score uint32
		switch {
		case mv.Equals(none):
			score = 1
		case mv.Equals(b.killers[depth][0]) || mv.Equals(b.killers[depth][1]):
			score = 100
		default:
			score = 10
		}

		var hist uint32
		if mv.Player == 0 {
			hist = b.maxHistory.Query(MaxKey{Pos: s.Hero.Pos, Dir: mv.Directions[0]})
		} else {
			idx := (s.Hero.ID - 1 + int(mv.Player)) % 4
			hist = b.minHistory.Query(MinKey{
				Player: mv.Player,
				Pos:    s.Game.Heroes[idx].Pos,
				Dir:    mv.Directions[mv.Player],
			})
		}
		score = score*256 + (lruAbsent - hist)

		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	ret := list[bestIdx]
	list[bestIdx] = list[len(list)-1]
	*moves = list[:len(list)-1]
	return ret
}

// brs is a fail-soft best-reply alpha/beta search. It returns ErrDeadline if
// the wall clock ran out, checked on early nodes and then every 1024 nodes.
func (b *Bot) brs(ctx context.Context, s *board.State, alpha, beta int32, depth int, endTime time.Time, nodes *uint64) (int32, error) {
	bmove := board.NoMove()

	hash := s.Hash()
	if e, ok := b.tt.Probe(hash); ok {
		bmove = e.Move
		if int(e.Depth) >= s.Game.Turn+depth {
			if e.Lower >= beta {
				return e.Lower, nil
			}
			if e.Upper <= alpha {
				return e.Upper, nil
			}
			if e.Lower > alpha {
				alpha = e.Lower
			}
			if e.Upper < beta {
				beta = e.Upper
			}
		}
	}

	if *nodes < 10 || *nodes&1023 == 1023 {
		if time.Now().After(endTime) {
			return 0, ErrDeadline
		}
	}
	*nodes++

	var g int32
	switch {
	case depth == 0 || s.Game.Turn > s.Game.MaxTurns-4:
		g = b.evaluator.Evaluate(ctx, s)

	case s.Game.Turn%4 == s.Hero.ID-1:
		// MAX node
		g = math.MinInt32
		bscore := int32(math.MinInt32)
		a := alpha

		moves := b.generateMoves(s)
		for len(moves) > 0 && g < beta {
			cur := b.pickNextMove(depth, bmove, &moves, s)

			umi := s.MakeMove(cur.Directions[0])
			v, err := b.brs(ctx, s, a, beta, depth-1, endTime, nodes)
			s.UnmakeMove(umi)
			if err != nil {
				return 0, err
			}

			if v > bscore {
				bmove = cur
				bscore = v
				b.maxHistory.Insert(MaxKey{Pos: s.Hero.Pos, Dir: cur.Directions[0]})
			}
			if v > g {
				g = v
			}
			if g > a {
				a = g
			}
		}

	default:
		// MIN node: apply the three opponent slots in sequence.
		g = math.MaxInt32
		bscore := int32(math.MaxInt32)
		bb := beta

		moves := b.generateMoves(s)
		for len(moves) > 0 && g > alpha {
			cur := b.pickNextMove(depth, bmove, &moves, s)

			umi1 := s.MakeMove(cur.Directions[1])
			umi2 := s.MakeMove(cur.Directions[2])
			umi3 := s.MakeMove(cur.Directions[3])
			v, err := b.brs(ctx, s, alpha, bb, depth-1, endTime, nodes)
			s.UnmakeMove(umi3)
			s.UnmakeMove(umi2)
			s.UnmakeMove(umi1)
			if err != nil {
				return 0, err
			}

			if v < bscore {
				bmove = cur
				bscore = v
				idx := (s.Hero.ID - 1 + int(cur.Player)) % 4
				b.minHistory.Insert(MinKey{
					Player: cur.Player,
					Pos:    s.Game.Heroes[idx].Pos,
					Dir:    cur.Directions[cur.Player],
				})
			}
			if v < g {
				g = v
			}
			if g < bb {
				bb = g
			}
		}
	}

	e := Entry{
		Move:  bmove,
		Hash:  hash,
		Depth: uint16(s.Game.Turn + depth),
		Age:   uint16(s.Game.Turn),
	}
	switch {
	case g <= alpha:
		e.Lower = math.MinInt32
		e.Upper = g
	case g < beta:
		e.Lower = g
		e.Upper = g
	default:
		e.Lower = g
		e.Upper = math.MaxInt32

		k := &b.killers[depth]
		if !bmove.Equals(k[0]) && !bmove.Equals(k[1]) {
			k[0] = k[1]
			k[1] = bmove
		}
	}
	b.tt.Store(e)

	return g, nil
}

// mtdf drives zero-window brs searches around a first guess until both a lower
// and an upper bound are found, then resolves the remaining window with one
// full search.
func (b *Bot) mtdf(ctx context.Context, s *board.State, firstguess int32, depth int, nodes *uint64, endTime time.Time) (int32, error) {
	f := firstguess
	lower, upper := int32(math.MinInt32), int32(math.MaxInt32)
	const step = 25

	for upper == math.MaxInt32 || lower == math.MinInt32 {
		g, err := b.brs(ctx, s, f-1, f, depth, endTime, nodes)
		if err != nil {
			return 0, err
		}

		if g < f {
			upper = g
		} else {
			lower = g
		}

		if upper == g {
			f = g - step
		} else {
			f = g + step
		}
	}

	if lower == upper {
		return lower, nil
	}
	return b.brs(ctx, s, lower, upper, depth, endTime, nodes)
}

// ChooseMove searches the state within the wall-clock budget and returns the
// chosen direction. It adopts the root move of an iteration only once the
// next iteration has also completed, so a truncated iteration can never
// promote a partially searched move; if no iteration completes it returns
// Stay. The input state is restored to its argument value.
func (b *Bot) ChooseMove(ctx context.Context, s *board.State) board.Direction {
	endTime := time.Now().Add(b.budget)

	if !b.initialized {
		b.initialize(ctx, s)
		if time.Now().Add(200 * time.Millisecond).After(endTime) {
			return board.Stay
		}
	}

	b.maxHistory = NewLRU(maxSentinel())
	b.minHistory = NewLRU(minSentinel())
	for i := range b.killers {
		b.killers[i][0] = board.NoMove()
		b.killers[i][1] = board.NoMove()
	}

	nodes := uint64(0)
	firstguess := b.evaluator.Evaluate(ctx, s)
	best, prev := board.Stay, board.Stay

	for depth := 1; depth <= maxSearchDepth && time.Now().Before(endTime); depth++ {
		start := time.Now()

		v, err := b.mtdf(ctx, s, firstguess, depth, &nodes, endTime)
		if err != nil {
			break // deadline: keep the last completed iteration
		}
		firstguess = v

		if e, ok := b.tt.Probe(s.Hash()); ok {
			prev = best
			best = e.Move.Directions[0]
			logw.Debugf(ctx, "depth=%v score=%v move=%v nodes=%v time=%v", depth, v, best, nodes, time.Since(start))
		}
	}

	return prev
}
