package war

import (
	"cmp"
	"strconv"
)

// Rank is the comparison value of a card. Suits are not modeled.
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

const (
	MinRank = Ace
	MaxRank = King
)

// Valid reports whether r is within [Ace, King].
func (r Rank) Valid() bool {
	return r >= MinRank && r <= MaxRank
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

// Card is an immutable playing card. Two cards are equal when their ranks are.
type Card struct {
	Rank Rank `json:"rank"`
}

func NewCard(r Rank) Card {
	return Card{Rank: r}
}

// Compare returns -1, 0 or +1 depending on whether c ranks below, equal to or
// above other.
func (c Card) Compare(other Card) int {
	return cmp.Compare(c.Rank, other.Rank)
}

// Less reports whether c ranks strictly below other.
func (c Card) Less(other Card) bool {
	return c.Rank < other.Rank
}

func (c Card) String() string {
	return c.Rank.String()
}
