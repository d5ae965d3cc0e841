package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pulljoker/src/app/http/response"
)

// Player identity can arrive as query parameters (browsers cannot set headers
// on a websocket handshake) or as headers.
const (
	playerIDQuery    = "playerId"
	playerNameQuery  = "playerName"
	PlayerIDHeader   = "X-Player-Id"
	PlayerNameHeader = "X-Player-Name"

	playerKey = "player"
)

// Player is the caller as identified by the lobby.
type Player struct {
	ID   string
	Name string
}

// PlayerAuth requires a player id on the request and stores the caller in
// the context. The name defaults to the id.
func PlayerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := firstNonEmpty(c.Query(playerIDQuery), c.GetHeader(PlayerIDHeader))
		if id == "" {
			response.Unauthorized(c, "missing player id", GetRequestID(c))
			c.Abort()
			return
		}
		name := firstNonEmpty(c.Query(playerNameQuery), c.GetHeader(PlayerNameHeader), id)

		c.Set(playerKey, Player{ID: id, Name: name})
		c.Next()
	}
}

// GetPlayer returns the caller stored by PlayerAuth.
func GetPlayer(c *gin.Context) (Player, bool) {
	v, ok := c.Get(playerKey)
	if !ok {
		return Player{}, false
	}
	p, ok := v.(Player)
	return p, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
