package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	seen := make(map[Card]bool)
	jokers := 0
	for _, c := range deck {
		assert.True(t, c.Valid(), "card %s", c)
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
		if c.IsJoker() {
			jokers++
		}
	}
	assert.Equal(t, 1, jokers)
}

func TestShuffledDeckIsPermutation(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	shuffled := ShuffledDeck(rnd)

	assert.ElementsMatch(t, NewDeck(), shuffled)
	assert.NotEqual(t, NewDeck(), shuffled)
}

func TestCardValid(t *testing.T) {
	assert.True(t, Card{Suit: Spades, Rank: Ace}.Valid())
	assert.True(t, Joker.Valid())
	assert.False(t, Card{Suit: JokerSuit, Rank: Ace}.Valid())
	assert.False(t, Card{Suit: "STARS", Rank: Ace}.Valid())
	assert.False(t, Card{Suit: Hearts, Rank: "1"}.Valid())
}

func TestHandPair(t *testing.T) {
	tests := []struct {
		name   string
		hand   Hand
		i, j   int
		wantOK bool
	}{
		{
			name: "no pair",
			hand: Hand{{Hearts, Two}, {Spades, Three}, Joker},
		},
		{
			name:   "first rank in hand order wins",
			hand:   Hand{{Hearts, Two}, {Spades, King}, {Clubs, King}, {Diamonds, Two}},
			i:      0,
			j:      3,
			wantOK: true,
		},
		{
			name:   "takes first two of a triple",
			hand:   Hand{Joker, {Hearts, Nine}, {Spades, Nine}, {Clubs, Nine}},
			i:      1,
			j:      2,
			wantOK: true,
		},
		{
			name: "lone joker never pairs",
			hand: Hand{Joker},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, j, ok := tt.hand.Pair()
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.i, i)
				assert.Equal(t, tt.j, j)
			}
		})
	}
}

func TestHandWithoutAndWithCopy(t *testing.T) {
	h := Hand{{Hearts, Two}, {Spades, Three}, {Clubs, Four}}

	removed := h.Without(0, 2)
	assert.Equal(t, Hand{{Spades, Three}}, removed)
	assert.Len(t, h, 3)

	added := h.With(Joker)
	assert.Equal(t, Joker, added[3])
	assert.Len(t, h, 3)

	assert.Equal(t, Hand{}, Hand{Joker}.Without(0))
}
