// Package projection turns committed game events into the messages each
// connected client receives.
//
// A recipient only ever sees the contents of its own hand. Everyone else's
// hand is reduced to a card count, and room-wide facts go out once to the
// whole room.
package projection

import "pulljoker/src/core/domain"

// Outbound message types.
const (
	TypePlayerJoinedRoom = "player-joined-room"
	TypePlayerLeftRoom   = "player-left-room"
	TypeGameStarted      = "game-started"
	TypeCardDealt        = "card-dealt"
	TypeCardPlayed       = "card-played"
	TypeCardDrawn        = "card-drawn"
	TypeHandsCompleted   = "hands-completed"
	TypeGameEnded        = "game-ended"
	TypeGetGameResult    = "get-game-result"
	TypeMyStatusResult   = "get-my-status-result"
	TypeValidationError  = "validation-error"
)

// Message is the {type, data} envelope every socket frame carries.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Envelope addresses a message. An empty Recipient means every subscriber of
// the game except the players listed in Except.
type Envelope struct {
	GameID    string
	Recipient string
	Except    []string
	Message   Message
}

// HandView is a hand as one recipient may see it.
type HandView struct {
	Cards     []domain.Card `json:"cards,omitempty"`
	CardCount int           `json:"cardCount"`
}

// PlayerView is a player with a redacted hand. Hands is null before dealing.
type PlayerView struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Hands *HandView `json:"hands"`
}

// DeckView lists face-up cards on the table.
type DeckView struct {
	Cards []domain.Card `json:"cards"`
}

type PlayerJoinedRoomData struct {
	GameID string           `json:"gameId"`
	Player domain.PlayerRef `json:"player"`
}

type PlayerLeftRoomData struct {
	GameID string           `json:"gameId"`
	Player domain.PlayerRef `json:"player"`
}

type GameStartedData struct {
	GameID  string             `json:"gameId"`
	Round   int                `json:"round"`
	Players []domain.PlayerRef `json:"players"`
	Status  domain.Status      `json:"status"`
}

type CardDealtData struct {
	GameID        string           `json:"gameId"`
	Round         int              `json:"round"`
	Deck          DeckView         `json:"deck"`
	Players       []PlayerView     `json:"players"`
	CurrentPlayer domain.PlayerRef `json:"currentPlayer"`
	NextPlayer    domain.PlayerRef `json:"nextPlayer"`
}

type CardPlayedData struct {
	GameID string        `json:"gameId"`
	Player PlayerView    `json:"player"`
	Cards  []domain.Card `json:"cards"`
}

// CardDrawnData carries the moved card only to the two players involved.
type CardDrawnData struct {
	Card       *domain.Card `json:"card,omitempty"`
	CardIndex  int          `json:"cardIndex"`
	FromPlayer PlayerView   `json:"fromPlayer"`
	ToPlayer   PlayerView   `json:"toPlayer"`
}

type HandsCompletedData struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Ranking  int    `json:"ranking"`
}

type GameEndedData struct {
	ID      string            `json:"id"`
	Status  domain.Status     `json:"status"`
	Ranking []domain.Standing `json:"ranking"`
}

// GameSnapshotData is the get-game-result payload. Everything tied to the
// deal is null while the room is waiting.
type GameSnapshotData struct {
	ID            string            `json:"id"`
	Status        domain.Status     `json:"status"`
	Round         *int              `json:"round"`
	Players       []PlayerView      `json:"players"`
	Deck          *DeckView         `json:"deck"`
	CurrentPlayer *domain.PlayerRef `json:"currentPlayer"`
	NextPlayer    *domain.PlayerRef `json:"nextPlayer"`
}

type MyStatusData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
