package board

import "fmt"

// Game is the global match state: the four heroes, the board and the turn
// counter. A turn is a single hero action; heroes move in id order, so the
// hero to move is Heroes[Turn%4].
type Game struct {
	ID       string  `json:"id"`
	Turn     int     `json:"turn"`
	MaxTurns int     `json:"maxTurns"`
	Heroes   [4]Hero `json:"heroes"`
	Board    Board   `json:"board"`
	Finished bool    `json:"finished"`
}

func (g *Game) String() string {
	return fmt.Sprintf("game{id=%v, turn=%v/%v, finished=%v}", g.ID, g.Turn, g.MaxTurns, g.Finished)
}
