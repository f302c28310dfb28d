package war

const (
	// DeckSize is the number of cards in a full deck.
	DeckSize = 52
	// HandSize is the number of cards each player is dealt.
	HandSize = DeckSize / 2

	copiesPerRank = 4
)

// NewDeck returns the canonical unshuffled deck: all four aces, then all four
// twos, and so on through the kings.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := MinRank; r <= MaxRank; r++ {
		for range copiesPerRank {
			deck = append(deck, NewCard(r))
		}
	}
	return deck
}
