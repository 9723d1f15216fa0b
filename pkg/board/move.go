package board

import "fmt"

// Move is a best-reply search move. Player 0 marks the searching hero's own
// move, carried in Directions[0]. Player 1..3 marks one of the three
// opponents in turn order after the searching hero; its direction sits in the
// matching slot and the other slots are Stay so that applying slots 1..3 in
// sequence advances the turn pointer past all three opponents.
type Move struct {
	Player     uint8
	Directions [4]Direction
}

// NoMove is the default all-Stay move.
func NoMove() Move {
	return Move{Directions: [4]Direction{Stay, Stay, Stay, Stay}}
}

func (m Move) Equals(o Move) bool {
	return m.Player == o.Player && m.Directions == o.Directions
}

func (m Move) String() string {
	return fmt.Sprintf("move{p%v %v}", m.Player, m.Directions[m.Player])
}
