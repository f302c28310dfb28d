package war

import "slices"

// Hand is a player's pile of cards. Cards are drawn from the front and won
// cards are added to the back.
type Hand struct {
	cards []Card
}

// NewHand returns a hand holding cards, front first.
func NewHand(cards ...Card) *Hand {
	return &Hand{cards: slices.Clone(cards)}
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) Empty() bool {
	return len(h.cards) == 0
}

// Cards returns a copy of the hand, front first.
func (h *Hand) Cards() []Card {
	return append(make([]Card, 0, len(h.cards)), h.cards...)
}

// Draw removes and returns the front card. Drawing from an empty hand means
// the caller skipped an emptiness check, so it panics.
func (h *Hand) Draw() Card {
	if len(h.cards) == 0 {
		panic("war: draw from empty hand")
	}
	c := h.cards[0]
	h.cards = h.cards[1:]
	return c
}

// Take appends cards to the back of the hand in the given order.
func (h *Hand) Take(cards ...Card) {
	h.cards = append(h.cards, cards...)
}
