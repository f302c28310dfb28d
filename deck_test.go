package war

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	counts := map[Rank]int{}
	for _, c := range deck {
		require.True(t, c.Rank.Valid(), "rank %d out of range", c.Rank)
		counts[c.Rank]++
	}
	assert.Len(t, counts, 13)
	for r, n := range counts {
		assert.Equal(t, 4, n, "rank %s", r)
	}

	assert.Equal(t, Rank(1), deck[0].Rank)
	assert.Equal(t, Rank(3), deck[10].Rank)
	assert.Equal(t, Rank(13), deck[51].Rank)
}

func TestNewDeck_RankMajor(t *testing.T) {
	deck := NewDeck()
	for i := 1; i < len(deck); i++ {
		assert.False(t, deck[i].Less(deck[i-1]), "deck not ordered at %d", i)
	}
}
