package domain

import (
	"fmt"
	"sync"
)

// Suit of a playing card.
type Suit string

const (
	Hearts    Suit = "HEARTS"
	Diamonds  Suit = "DIAMONDS"
	Clubs     Suit = "CLUBS"
	Spades    Suit = "SPADES"
	JokerSuit Suit = "JOKER"
)

// Rank of a playing card.
type Rank string

const (
	Two       Rank = "2"
	Three     Rank = "3"
	Four      Rank = "4"
	Five      Rank = "5"
	Six       Rank = "6"
	Seven     Rank = "7"
	Eight     Rank = "8"
	Nine      Rank = "9"
	Ten       Rank = "10"
	Jack      Rank = "J"
	Queen     Rank = "Q"
	King      Rank = "K"
	Ace       Rank = "A"
	JokerRank Rank = "JOKER_1"
)

// DeckSize is the number of cards in play: 52 standard cards and one joker.
const DeckSize = 53

var (
	standardSuits = []Suit{Hearts, Diamonds, Clubs, Spades}
	standardRanks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
)

// Card is a value type; two cards are the same card iff they compare equal.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Joker is the single card that never pairs.
var Joker = Card{Suit: JokerSuit, Rank: JokerRank}

// IsJoker reports whether c is the joker.
func (c Card) IsJoker() bool {
	return c.Suit == JokerSuit
}

func (c Card) String() string {
	if c.IsJoker() {
		return "JOKER"
	}
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Valid reports whether c is one of the 53 cards of the deck.
func (c Card) Valid() bool {
	if c.IsJoker() {
		return c == Joker
	}
	suitOK, rankOK := false, false
	for _, s := range standardSuits {
		suitOK = suitOK || s == c.Suit
	}
	for _, r := range standardRanks {
		rankOK = rankOK || r == c.Rank
	}
	return suitOK && rankOK
}

// Randomizer is the source of randomness for shuffling and seat selection.
// *rand.Rand from math/rand/v2 satisfies it.
type Randomizer interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Synchronized returns a Randomizer that serializes calls to r. A
// *rand.Rand is not safe for concurrent use; wrap it before sharing it
// between games.
func Synchronized(r Randomizer) Randomizer {
	if _, ok := r.(*lockedRandomizer); ok {
		return r
	}
	return &lockedRandomizer{r: r}
}

type lockedRandomizer struct {
	mu sync.Mutex
	r  Randomizer
}

func (l *lockedRandomizer) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRandomizer) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// NewDeck returns the 53 cards in a fixed order: suits, then ranks, then the joker.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, s := range standardSuits {
		for _, r := range standardRanks {
			cards = append(cards, Card{Suit: s, Rank: r})
		}
	}
	return append(cards, Joker)
}

// ShuffledDeck returns a new deck permuted by rnd.
func ShuffledDeck(rnd Randomizer) []Card {
	cards := NewDeck()
	rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
