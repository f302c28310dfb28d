package war

import "slices"

// Seat identifies one side of the table.
type Seat int

const (
	NoSeat Seat = iota
	Player1
	Player2
)

func (s Seat) String() string {
	switch s {
	case Player1:
		return "Player 1"
	case Player2:
		return "Player 2"
	default:
		return "none"
	}
}

// Round describes how one confrontation ended.
type Round struct {
	// Winner is NoSeat when nothing was resolved or the stack was abandoned.
	Winner Seat
	// Wars counts the equal-rank escalations within the round.
	Wars int
	// Won is the number of cards transferred to the winner.
	Won int
	// Abandoned is the number of cards left on the stack when a hand ran dry
	// mid-war. Those cards leave play.
	Abandoned int
}

// PlayRound resolves one confrontation between p1 and p2, including any war
// escalations, mutating both hands in place.
//
// Each comparison moves the front card of both hands onto a shared stack.
// The higher rank takes the whole stack, most recently placed card first, at
// the back of its hand. Equal ranks escalate: both players add one face-down
// card and compare again. If either hand is empty when a card is needed, the
// round ends and the stack is abandoned rather than awarded.
func PlayRound(p1, p2 *Hand) Round {
	var r Round
	if p1.Empty() || p2.Empty() {
		return r
	}

	var stack []Card
	for {
		if p1.Empty() || p2.Empty() {
			r.Abandoned = len(stack)
			return r
		}

		c1, c2 := p1.Draw(), p2.Draw()
		stack = append(stack, c1, c2)

		switch c1.Compare(c2) {
		case 1:
			p1.Take(topFirst(stack)...)
			r.Winner, r.Won = Player1, len(stack)
			return r
		case -1:
			p2.Take(topFirst(stack)...)
			r.Winner, r.Won = Player2, len(stack)
			return r
		}

		r.Wars++
		if p1.Empty() || p2.Empty() {
			r.Abandoned = len(stack)
			return r
		}
		stack = append(stack, p1.Draw(), p2.Draw())
	}
}

// topFirst returns the stack in pickup order, last placed card first.
func topFirst(stack []Card) []Card {
	won := slices.Clone(stack)
	slices.Reverse(won)
	return won
}
