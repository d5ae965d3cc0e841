package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulljoker/src/app/http/dto"
	"pulljoker/src/app/http/response"
	"pulljoker/src/app/middleware"
	"pulljoker/src/core/usecase"
)

// GameHandler exposes room creation and read access to games.
type GameHandler struct {
	gameService *usecase.GameService
	frontendURL string
}

func NewGameHandler(gameService *usecase.GameService, frontendURL string) *GameHandler {
	return &GameHandler{gameService: gameService, frontendURL: frontendURL}
}

// Create opens an empty room.
// POST /api/games
func (h *GameHandler) Create(c *gin.Context) {
	id, err := h.gameService.CreateRoom(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	c.JSON(http.StatusCreated, dto.NewCreateGameResponse(h.frontendURL, id))
}

// Get returns the game as the calling player may see it.
// GET /api/games/:game_id
func (h *GameHandler) Get(c *gin.Context) {
	player, ok := middleware.GetPlayer(c)
	if !ok {
		response.Unauthorized(c, "missing player id", middleware.GetRequestID(c))
		return
	}
	gameID := c.Param("game_id")
	if gameID == "" {
		response.ValidationError(c, "game_id", "game id is required", middleware.GetRequestID(c))
		return
	}

	state, err := h.gameService.GetGame(c.Request.Context(), gameID)
	if err != nil {
		_ = c.Error(err)
		response.FromDomainError(c, err, middleware.GetRequestID(c))
		return
	}
	c.JSON(http.StatusOK, dto.NewGameResponse(state, player.ID))
}
