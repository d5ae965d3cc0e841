package domain

import (
	"math/rand/v2"
	"time"
)

// Game is the pull-the-joker aggregate. Commands validate against the current
// state, then emit events through the aggregate; state changes only by folding
// those events.
type Game struct {
	agg *Aggregate[GameState]
	rnd Randomizer
	now func() time.Time
}

// GameOption configures a Game.
type GameOption func(*Game)

// WithRandomizer sets the source used for shuffling and seat selection.
// The option may be shared by games running on different goroutines.
func WithRandomizer(r Randomizer) GameOption {
	rnd := Synchronized(r)
	return func(g *Game) { g.rnd = rnd }
}

// WithClock sets the clock used to stamp events.
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) { g.now = now }
}

var gameRules = Rules[GameState]{
	When:      whenGame,
	Invariant: checkGameInvariants,
	Clone:     cloneGameState,
}

func newGameShell(opts []GameOption) *Game {
	g := &Game{rnd: defaultRandomizer{}, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGame opens a room. The RoomCreated event is pending on the result.
func NewGame(id string, opts ...GameOption) (*Game, error) {
	g := newGameShell(opts)
	created := NewEvent(RoomCreated{GameID: id, Status: StatusWaiting}, g.now())
	agg, err := newAggregate(gameRules, emptyGameState(), created)
	if err != nil {
		return nil, err
	}
	g.agg = agg
	return g, nil
}

// RehydrateGame rebuilds a game from its full history. Nothing is pending on
// the result.
func RehydrateGame(history []Event, opts ...GameOption) (*Game, error) {
	g := newGameShell(opts)
	agg, err := rehydrate(gameRules, emptyGameState(), history)
	if err != nil {
		return nil, err
	}
	g.agg = agg
	return g, nil
}

// ID returns the game id.
func (g *Game) ID() string { return g.agg.state.ID }

// Version is the number of events applied, pending included.
func (g *Game) Version() int { return g.agg.Version() }

// State returns a copy of the current state.
func (g *Game) State() GameState { return g.agg.State() }

// PendingEvents returns events not yet persisted.
func (g *Game) PendingEvents() []Event { return g.agg.PendingEvents() }

// ClearPending marks pending events as persisted.
func (g *Game) ClearPending() { g.agg.ClearPending() }

// JoinRoom seats a player.
func (g *Game) JoinRoom(playerID, name string) error {
	return g.agg.Execute(func(tx *Tx[GameState]) error {
		s := tx.State()
		if err := requireWaiting(s); err != nil {
			return err
		}
		if len(s.Players) >= MaxPlayers {
			return NewError(ErrRoomFull, "room %s already has %d players", s.ID, MaxPlayers)
		}
		if s.Seat(playerID) != NoSeat {
			return NewError(ErrDuplicatePlayer, "player %s", playerID)
		}
		return g.emit(tx, PlayerJoinedRoom{
			GameID: s.ID,
			Player: PlayerRef{ID: playerID, Name: name},
		})
	})
}

// LeaveRoom frees a seat before the game starts.
func (g *Game) LeaveRoom(playerID string) error {
	return g.agg.Execute(func(tx *Tx[GameState]) error {
		s := tx.State()
		if err := requireWaiting(s); err != nil {
			return err
		}
		seat := s.Seat(playerID)
		if seat == NoSeat {
			return NewError(ErrPlayerNotFound, "player %s", playerID)
		}
		return g.emit(tx, PlayerLeftRoom{GameID: s.ID, Player: s.Players[seat].Ref()})
	})
}

// Start deals the cards and discards every pair dealt.
func (g *Game) Start(requesterID string) error {
	return g.agg.Execute(func(tx *Tx[GameState]) error {
		s := tx.State()
		if err := requireWaiting(s); err != nil {
			return err
		}
		if s.Seat(requesterID) == NoSeat {
			return NewError(ErrNotRoomMember, "player %s", requesterID)
		}
		if len(s.Players) != MaxPlayers {
			return NewError(ErrWrongPlayerCount, "need %d players, have %d", MaxPlayers, len(s.Players))
		}

		refs := make([]PlayerRef, len(s.Players))
		for i, p := range s.Players {
			refs[i] = p.Ref()
		}
		if err := g.emit(tx, GameStarted{
			GameID:  s.ID,
			Round:   1,
			Players: refs,
			Status:  StatusPlaying,
		}); err != nil {
			return err
		}

		if err := g.emit(tx, g.deal(s.ID, refs)); err != nil {
			return err
		}
		for seat := range MaxPlayers {
			if err := g.playPairs(tx, seat); err != nil {
				return err
			}
		}
		for seat := range MaxPlayers {
			if !tx.State().Players[seat].Hand.Empty() {
				continue
			}
			ended, err := g.complete(tx, seat)
			if err != nil || ended {
				return err
			}
		}
		return nil
	})
}

// deal shuffles a fresh deck, deals thirteen cards around the table from a
// random first seat, and gives the last card to a random seat.
func (g *Game) deal(gameID string, refs []PlayerRef) CardDealt {
	deck := ShuffledDeck(g.rnd)
	first := g.rnd.IntN(MaxPlayers)
	bonus := g.rnd.IntN(MaxPlayers)

	hands := make([]Hand, MaxPlayers)
	for i := range hands {
		hands[i] = Hand{}
	}
	for i := 0; len(deck) > 1; i++ {
		seat := (first + i) % MaxPlayers
		hands[seat] = append(hands[seat], deck[0])
		deck = deck[1:]
	}
	hands[bonus] = append(hands[bonus], deck[0])
	deck = deck[1:]

	dealt := make([]PlayerHand, MaxPlayers)
	for seat, ref := range refs {
		dealt[seat] = PlayerHand{PlayerRef: ref, Hand: hands[seat]}
	}
	return CardDealt{
		GameID:        gameID,
		Round:         1,
		Deck:          cloneCards(deck),
		Players:       dealt,
		CurrentPlayer: refs[first],
		NextPlayer:    refs[(first+1)%MaxPlayers],
	}
}

// DrawCard moves the card at cardIndex of fromID's hand to the end of toID's
// hand. fromID must be the current player and toID the next one.
func (g *Game) DrawCard(fromID, toID string, cardIndex int) error {
	return g.agg.Execute(func(tx *Tx[GameState]) error {
		s := tx.State()
		switch s.Status {
		case StatusEnd:
			return NewError(ErrGameOver, "game %s has ended", s.ID)
		case StatusWaiting:
			return NewError(ErrGameNotStarted, "game %s is waiting for players", s.ID)
		}
		if s.Seat(fromID) == NoSeat {
			return NewError(ErrPlayerNotFound, "player %s", fromID)
		}
		if s.Seat(toID) == NoSeat {
			return NewError(ErrPlayerNotFound, "player %s", toID)
		}
		from, _ := s.CurrentPlayer()
		to, ok := s.NextPlayer()
		if !ok || from.ID != fromID || to.ID != toID {
			return NewError(ErrNotYourTurn, "%s cannot draw from %s", toID, fromID)
		}
		if cardIndex < 0 || cardIndex >= len(from.Hand) {
			return NewError(ErrInvalidCardIndex, "index %d, hand has %d cards", cardIndex, len(from.Hand))
		}

		card := from.Hand[cardIndex]
		fromSeat, toSeat := s.Current, s.Next
		if err := g.emit(tx, CardDrawn{
			GameID:     s.ID,
			Card:       card,
			CardIndex:  cardIndex,
			FromPlayer: PlayerHand{PlayerRef: from.Ref(), Hand: from.Hand.Without(cardIndex)},
			ToPlayer:   PlayerHand{PlayerRef: to.Ref(), Hand: to.Hand.With(card)},
		}); err != nil {
			return err
		}

		if tx.State().Players[fromSeat].Hand.Empty() {
			ended, err := g.complete(tx, fromSeat)
			if err != nil || ended {
				return err
			}
		}
		if err := g.playPairs(tx, toSeat); err != nil {
			return err
		}
		if tx.State().Players[toSeat].Hand.Empty() {
			_, err := g.complete(tx, toSeat)
			return err
		}
		return nil
	})
}

// playPairs discards pairs from seat's hand until none are left.
func (g *Game) playPairs(tx *Tx[GameState], seat int) error {
	for {
		p := tx.State().Players[seat]
		i, j, ok := p.Hand.Pair()
		if !ok {
			return nil
		}
		if err := g.emit(tx, CardPlayed{
			GameID: tx.State().ID,
			Player: PlayerHand{PlayerRef: p.Ref(), Hand: p.Hand.Without(i, j)},
			Cards:  []Card{p.Hand[i], p.Hand[j]},
		}); err != nil {
			return err
		}
	}
}

// complete records that seat has emptied its hand and ends the game when
// nobody is left to draw. It reports whether the game ended.
func (g *Game) complete(tx *Tx[GameState], seat int) (bool, error) {
	s := tx.State()
	if err := g.emit(tx, HandsCompleted{
		GameID:  s.ID,
		Player:  s.Players[seat].Ref(),
		Ranking: len(s.Finished) + 1,
	}); err != nil {
		return false, err
	}
	s = tx.State()
	if s.Next != NoSeat {
		return false, nil
	}
	return true, g.emit(tx, GameEnded{
		GameID:  s.ID,
		Status:  StatusEnd,
		Ranking: s.Standings(),
	})
}

func (g *Game) emit(tx *Tx[GameState], data EventData) error {
	return tx.Apply(NewEvent(data, g.now()))
}

func requireWaiting(s GameState) error {
	switch s.Status {
	case StatusEnd:
		return NewError(ErrGameOver, "game %s has ended", s.ID)
	case StatusPlaying:
		return NewError(ErrGameAlreadyStarted, "game %s is in progress", s.ID)
	}
	return nil
}

type defaultRandomizer struct{}

func (defaultRandomizer) IntN(n int) int                     { return rand.IntN(n) }
func (defaultRandomizer) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
