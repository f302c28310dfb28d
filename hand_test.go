package war

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHand_Draw(t *testing.T) {
	tests := []struct {
		name      string
		cards     []Card
		want      Card
		wantLeft  []Card
		wantPanic bool
	}{
		{
			name:     "draws from the front",
			cards:    cards(4, 9, 2),
			want:     NewCard(4),
			wantLeft: cards(9, 2),
		},
		{
			name:     "last card empties the hand",
			cards:    cards(King),
			want:     NewCard(King),
			wantLeft: []Card{},
		},
		{
			name:      "empty hand panics",
			cards:     nil,
			wantPanic: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHand(tt.cards...)
			if tt.wantPanic {
				assert.Panics(t, func() { h.Draw() })
				return
			}
			assert.Equal(t, tt.want, h.Draw())
			assert.Equal(t, tt.wantLeft, h.Cards())
		})
	}
}

func TestHand_Take(t *testing.T) {
	h := NewHand(cards(3)...)
	h.Take(cards(8, 1)...)
	assert.Equal(t, cards(3, 8, 1), h.Cards())
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.Empty())
}

func TestNewHand_CopiesInput(t *testing.T) {
	in := cards(5, 6)
	h := NewHand(in...)
	in[0] = NewCard(King)
	assert.Equal(t, cards(5, 6), h.Cards())

	out := h.Cards()
	out[1] = NewCard(Ace)
	assert.Equal(t, cards(5, 6), h.Cards())
}
