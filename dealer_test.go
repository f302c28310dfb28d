package war

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkahng/war/random"
)

// noShuffle leaves the deck in canonical order.
type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

// reverseShuffle reverses the deck.
type reverseShuffle struct{}

func (reverseShuffle) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func TestDeal_Alternates(t *testing.T) {
	p1, p2 := Deal(NewDeck(), noShuffle{})

	want := make([]Card, 0, HandSize)
	for r := MinRank; r <= MaxRank; r++ {
		want = append(want, NewCard(r), NewCard(r))
	}
	assert.Equal(t, want, p1.Cards())
	assert.Equal(t, want, p2.Cards())
}

func TestDeal_PartitionsDeck(t *testing.T) {
	shufflers := []struct {
		name string
		s    Shuffler
	}{
		{name: "identity", s: noShuffle{}},
		{name: "reverse", s: reverseShuffle{}},
		{name: "seeded", s: random.New(random.Seed{1, 2, 3})},
		{name: "global", s: random.Global{}},
	}
	for _, tt := range shufflers {
		t.Run(tt.name, func(t *testing.T) {
			deck := NewDeck()
			p1, p2 := Deal(deck, tt.s)
			require.Equal(t, HandSize, p1.Len())
			require.Equal(t, HandSize, p2.Len())

			union := append(p1.Cards(), p2.Cards()...)
			assert.ElementsMatch(t, deck, union)
		})
	}
}

func TestDeal_DoesNotMutateDeck(t *testing.T) {
	deck := NewDeck()
	Deal(deck, reverseShuffle{})
	assert.True(t, slices.Equal(NewDeck(), deck))
}

func TestDeal_MalformedDeckPanics(t *testing.T) {
	assert.Panics(t, func() { Deal(nil, noShuffle{}) })
	assert.Panics(t, func() { Deal(NewDeck()[:51], noShuffle{}) })
}
