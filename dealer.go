package war

import "fmt"

// Shuffler produces a random permutation through a sequence of swaps.
// *rand.Rand from math/rand and math/rand/v2 both satisfy it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Deal shuffles a copy of deck with s and deals it one card at a time,
// player 1 first, into two hands of HandSize cards each.
//
// deck must hold exactly DeckSize cards; anything else is a programming error
// and panics.
func Deal(deck []Card, s Shuffler) (p1, p2 *Hand) {
	if len(deck) != DeckSize {
		panic(fmt.Sprintf("war: deal from malformed deck of %d cards", len(deck)))
	}

	pile := NewHand(deck...)
	s.Shuffle(len(pile.cards), func(i, j int) {
		pile.cards[i], pile.cards[j] = pile.cards[j], pile.cards[i]
	})

	p1 = &Hand{cards: make([]Card, 0, DeckSize)}
	p2 = &Hand{cards: make([]Card, 0, DeckSize)}
	for range HandSize {
		p1.Take(pile.Draw())
		p2.Take(pile.Draw())
	}
	return p1, p2
}
