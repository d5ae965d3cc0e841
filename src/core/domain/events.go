package domain

// PlayerRef identifies a player without revealing anything about their hand.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerHand is a player together with the full contents of their hand.
type PlayerHand struct {
	PlayerRef
	Hand Hand `json:"hands"`
}

// Standing is one line of the final ranking.
type Standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
}

// RoomCreated opens a new game in the WAITING state.
type RoomCreated struct {
	GameID string `json:"gameId"`
	Status Status `json:"status"`
}

// PlayerJoinedRoom seats a player at the next free seat.
type PlayerJoinedRoom struct {
	GameID string    `json:"gameId"`
	Player PlayerRef `json:"player"`
}

// PlayerLeftRoom frees a seat before the game starts.
type PlayerLeftRoom struct {
	GameID string    `json:"gameId"`
	Player PlayerRef `json:"player"`
}

// GameStarted moves the room to PLAYING.
type GameStarted struct {
	GameID  string      `json:"gameId"`
	Round   int         `json:"round"`
	Players []PlayerRef `json:"players"`
	Status  Status      `json:"status"`
}

// CardDealt records every dealt hand, what is left of the deck, and who
// draws first.
type CardDealt struct {
	GameID        string       `json:"gameId"`
	Round         int          `json:"round"`
	Deck          []Card       `json:"deck"`
	Players       []PlayerHand `json:"players"`
	CurrentPlayer PlayerRef    `json:"currentPlayer"`
	NextPlayer    PlayerRef    `json:"nextPlayer"`
}

// CardPlayed discards a pair. Player.Hand is the hand after the discard.
type CardPlayed struct {
	GameID string     `json:"gameId"`
	Player PlayerHand `json:"player"`
	Cards  []Card     `json:"cards"`
}

// CardDrawn moves one card from FromPlayer to the end of ToPlayer's hand.
// Both hands are recorded after the move.
type CardDrawn struct {
	GameID     string     `json:"gameId"`
	Card       Card       `json:"card"`
	CardIndex  int        `json:"cardIndex"`
	FromPlayer PlayerHand `json:"fromPlayer"`
	ToPlayer   PlayerHand `json:"toPlayer"`
}

// HandsCompleted records that a player has emptied their hand.
type HandsCompleted struct {
	GameID  string    `json:"gameId"`
	Player  PlayerRef `json:"player"`
	Ranking int       `json:"ranking"`
}

// GameEnded is terminal.
type GameEnded struct {
	GameID  string     `json:"gameId"`
	Status  Status     `json:"status"`
	Ranking []Standing `json:"ranking"`
}

func (RoomCreated) EventType() EventType      { return EventRoomCreated }
func (PlayerJoinedRoom) EventType() EventType { return EventPlayerJoinedRoom }
func (PlayerLeftRoom) EventType() EventType   { return EventPlayerLeftRoom }
func (GameStarted) EventType() EventType      { return EventGameStarted }
func (CardDealt) EventType() EventType        { return EventCardDealt }
func (CardPlayed) EventType() EventType       { return EventCardPlayed }
func (CardDrawn) EventType() EventType        { return EventCardDrawn }
func (HandsCompleted) EventType() EventType   { return EventHandsCompleted }
func (GameEnded) EventType() EventType        { return EventGameEnded }

func (RoomCreated) gameEvent()      {}
func (PlayerJoinedRoom) gameEvent() {}
func (PlayerLeftRoom) gameEvent()   {}
func (GameStarted) gameEvent()      {}
func (CardDealt) gameEvent()        {}
func (CardPlayed) gameEvent()       {}
func (CardDrawn) gameEvent()        {}
func (HandsCompleted) gameEvent()   {}
func (GameEnded) gameEvent()        {}
