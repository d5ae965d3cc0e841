package dto

import (
	"pulljoker/src/core/domain"
	"pulljoker/src/core/projection"
	"pulljoker/src/infra/lobby"
)

// CreateGameResponse is returned by POST /api/games.
type CreateGameResponse struct {
	GameID  string `json:"gameId"`
	GameURL string `json:"gameUrl"`
}

// NewCreateGameResponse links the new game from the frontend base URL.
func NewCreateGameResponse(frontendURL, gameID string) CreateGameResponse {
	return CreateGameResponse{GameID: gameID, GameURL: lobby.GameURL(frontendURL, gameID)}
}

// GameResponse is the game as the requesting player may see it.
type GameResponse = projection.GameSnapshotData

// NewGameResponse redacts s for viewer.
func NewGameResponse(s domain.GameState, viewer string) GameResponse {
	return projection.Snapshot(s, viewer)
}
