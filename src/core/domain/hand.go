package domain

// Hand is an ordered list of cards. Order matters: draw indexes and pair
// detection both follow it.
type Hand []Card

// Len returns the number of cards held.
func (h Hand) Len() int { return len(h) }

// Empty reports whether the hand has no cards.
func (h Hand) Empty() bool { return len(h) == 0 }

// Pair finds the first rank, in hand order, held at least twice and returns
// the positions of its first two cards. Jokers never pair.
func (h Hand) Pair() (int, int, bool) {
	for i, c := range h {
		if c.IsJoker() {
			continue
		}
		for j := i + 1; j < len(h); j++ {
			if h[j].Rank == c.Rank && !h[j].IsJoker() {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// HasPair reports whether Pair would find anything.
func (h Hand) HasPair() bool {
	_, _, ok := h.Pair()
	return ok
}

// Without returns a copy of h minus the cards at the given positions.
func (h Hand) Without(positions ...int) Hand {
	skip := make(map[int]bool, len(positions))
	for _, p := range positions {
		skip[p] = true
	}
	out := make(Hand, 0, len(h))
	for i, c := range h {
		if !skip[i] {
			out = append(out, c)
		}
	}
	return out
}

// With returns a copy of h with c appended.
func (h Hand) With(c Card) Hand {
	out := make(Hand, len(h), len(h)+1)
	copy(out, h)
	return append(out, c)
}

func (h Hand) clone() Hand {
	return Hand(cloneCards(h))
}
