package domain

import "fmt"

// Status of a game. Transitions only go forward: WAITING, PLAYING, END.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusPlaying Status = "PLAYING"
	StatusEnd     Status = "END"
)

const (
	// MaxPlayers is both the room capacity and the size of the turn ring.
	MaxPlayers = 4

	// NoSeat stands for an absent current or next player.
	NoSeat = -1
)

// Player is a seated participant. Seat is the index in GameState.Players.
type Player struct {
	ID   string
	Name string
	Hand Hand
}

// Ref returns the public identity of p.
func (p Player) Ref() PlayerRef { return PlayerRef{ID: p.ID, Name: p.Name} }

// GameState is the folded state of a game aggregate.
type GameState struct {
	ID       string
	Version  int // events folded so far
	Status   Status
	Round    int
	Players  []Player
	Deck     []Card
	Discard  []Card
	Dealt    bool
	Current  int
	Next     int
	Finished []PlayerRef
}

func emptyGameState() GameState {
	return GameState{Current: NoSeat, Next: NoSeat}
}

// Seat returns the seat of playerID, or NoSeat.
func (s GameState) Seat(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return NoSeat
}

// CurrentPlayer returns the player whose hand is drawn from next.
func (s GameState) CurrentPlayer() (Player, bool) { return s.at(s.Current) }

// NextPlayer returns the player who draws next.
func (s GameState) NextPlayer() (Player, bool) { return s.at(s.Next) }

func (s GameState) at(seat int) (Player, bool) {
	if seat < 0 || seat >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[seat], true
}

// IsFinished reports whether playerID has emptied their hand.
func (s GameState) IsFinished(playerID string) bool {
	for _, f := range s.Finished {
		if f.ID == playerID {
			return true
		}
	}
	return false
}

// CardCount is the number of cards in the deck, every hand, and the discard pile.
func (s GameState) CardCount() int {
	n := len(s.Deck) + len(s.Discard)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// Standings ranks finished players in finishing order, then everyone else
// in seat order.
func (s GameState) Standings() []Standing {
	out := make([]Standing, 0, len(s.Players))
	for i, f := range s.Finished {
		out = append(out, Standing{PlayerID: f.ID, Name: f.Name, Rank: i + 1})
	}
	for _, p := range s.Players {
		if !s.IsFinished(p.ID) {
			out = append(out, Standing{PlayerID: p.ID, Name: p.Name, Rank: len(out) + 1})
		}
	}
	return out
}

func (s GameState) inPlay(seat int) bool {
	p, ok := s.at(seat)
	return ok && !p.Hand.Empty() && !s.IsFinished(p.ID)
}

// after returns the first seat past from, walking the fixed ring, that is
// still in play. It never returns from itself.
func (s GameState) after(from int) int {
	for step := 1; step < MaxPlayers; step++ {
		seat := (from + step) % MaxPlayers
		if s.inPlay(seat) {
			return seat
		}
	}
	return NoSeat
}

func (s *GameState) setCurrent(seat int) {
	if seat != s.Current && seat == 0 {
		s.Round++
	}
	s.Current = seat
}

func cloneGameState(s GameState) GameState {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hand = p.Hand.clone()
		out.Players[i] = p
	}
	out.Deck = cloneCards(s.Deck)
	out.Discard = cloneCards(s.Discard)
	out.Finished = make([]PlayerRef, len(s.Finished))
	copy(out.Finished, s.Finished)
	return out
}

func checkGameInvariants(s GameState) error {
	if len(s.Players) > MaxPlayers {
		return invariantError("%d players seated", len(s.Players))
	}
	switch s.Status {
	case "", StatusWaiting, StatusPlaying, StatusEnd:
	default:
		return invariantError("unknown status %q", s.Status)
	}
	seen := make(map[string]bool, len(s.Finished))
	for _, f := range s.Finished {
		if seen[f.ID] || s.Seat(f.ID) == NoSeat {
			return invariantError("bad finished entry %q", f.ID)
		}
		seen[f.ID] = true
	}
	if !s.Dealt {
		return nil
	}
	if err := checkConservation(s); err != nil {
		return err
	}
	if s.Status != StatusPlaying {
		return nil
	}
	if _, ok := s.at(s.Current); !ok {
		return invariantError("current seat %d out of range", s.Current)
	}
	// With no next player the game is about to end; the last finisher may
	// still hold the current seat.
	if s.Next == NoSeat {
		return nil
	}
	if s.IsFinished(s.Players[s.Current].ID) {
		return invariantError("current seat %d already finished", s.Current)
	}
	if _, ok := s.at(s.Next); !ok || s.Next == s.Current || s.IsFinished(s.Players[s.Next].ID) {
		return invariantError("next seat %d is not playable", s.Next)
	}
	return nil
}

func checkConservation(s GameState) error {
	if n := s.CardCount(); n != DeckSize {
		return invariantError("%d cards in play, want %d", n, DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	check := func(cards []Card) error {
		for _, c := range cards {
			if !c.Valid() || seen[c] {
				return invariantError("card %s duplicated or unknown", c)
			}
			seen[c] = true
		}
		return nil
	}
	if err := check(s.Deck); err != nil {
		return err
	}
	if err := check(s.Discard); err != nil {
		return err
	}
	for _, p := range s.Players {
		if err := check(p.Hand); err != nil {
			return err
		}
	}
	return nil
}

// whenGame is the fold. It works on a clone so the input is never touched.
func whenGame(prev GameState, ev Event) (GameState, error) {
	s := cloneGameState(prev)
	switch d := ev.Data.(type) {
	case RoomCreated:
		if s.ID != "" {
			return prev, invariantError("room %s created twice", s.ID)
		}
		s.ID = d.GameID
		s.Status = StatusWaiting
		s.Players = []Player{}
		s.Deck = []Card{}
		s.Discard = []Card{}
		s.Finished = []PlayerRef{}
		s.Current, s.Next = NoSeat, NoSeat

	case PlayerJoinedRoom:
		if s.Status != StatusWaiting {
			return prev, invariantError("join while %s", s.Status)
		}
		s.Players = append(s.Players, Player{ID: d.Player.ID, Name: d.Player.Name, Hand: Hand{}})

	case PlayerLeftRoom:
		seat := s.Seat(d.Player.ID)
		if seat == NoSeat || s.Status != StatusWaiting {
			return prev, invariantError("leave of %q while %s", d.Player.ID, s.Status)
		}
		s.Players = append(s.Players[:seat], s.Players[seat+1:]...)

	case GameStarted:
		if s.Status != StatusWaiting {
			return prev, invariantError("start while %s", s.Status)
		}
		s.Status = d.Status
		s.Round = d.Round

	case CardDealt:
		if s.Status != StatusPlaying || s.Dealt {
			return prev, invariantError("deal while %s", s.Status)
		}
		for _, ph := range d.Players {
			seat := s.Seat(ph.ID)
			if seat == NoSeat {
				return prev, invariantError("deal to unknown player %q", ph.ID)
			}
			s.Players[seat].Hand = ph.Hand.clone()
		}
		s.Deck = cloneCards(d.Deck)
		s.Round = d.Round
		s.Current = s.Seat(d.CurrentPlayer.ID)
		s.Next = s.Seat(d.NextPlayer.ID)
		s.Dealt = true

	case CardPlayed:
		seat := s.Seat(d.Player.ID)
		if seat == NoSeat {
			return prev, invariantError("play by unknown player %q", d.Player.ID)
		}
		s.Players[seat].Hand = d.Player.Hand.clone()
		s.Discard = append(s.Discard, d.Cards...)

	case CardDrawn:
		from, to := s.Seat(d.FromPlayer.ID), s.Seat(d.ToPlayer.ID)
		if from == NoSeat || to == NoSeat {
			return prev, invariantError("draw between unknown players")
		}
		s.Players[from].Hand = d.FromPlayer.Hand.clone()
		s.Players[to].Hand = d.ToPlayer.Hand.clone()
		s.setCurrent(to)
		s.Next = s.after(to)

	case HandsCompleted:
		seat := s.Seat(d.Player.ID)
		if seat == NoSeat {
			return prev, invariantError("unknown finisher %q", d.Player.ID)
		}
		if d.Ranking != len(s.Finished)+1 {
			return prev, invariantError("ranking %d out of order", d.Ranking)
		}
		s.Finished = append(s.Finished, d.Player)
		if s.Current == seat {
			if next := s.after(seat); next != NoSeat {
				s.setCurrent(next)
			}
		}
		s.Next = NoSeat
		if s.inPlay(s.Current) {
			s.Next = s.after(s.Current)
		}

	case GameEnded:
		if s.Status != StatusPlaying {
			return prev, invariantError("end while %s", s.Status)
		}
		s.Status = StatusEnd

	default:
		return prev, NewError(ErrUnknownEventType, "%T", ev.Data)
	}
	s.Version++
	return s, nil
}

func (s GameState) String() string {
	return fmt.Sprintf("game %s %s round=%d players=%d current=%d next=%d",
		s.ID, s.Status, s.Round, len(s.Players), s.Current, s.Next)
}
