package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pulljoker/src/app/http/response"
	"pulljoker/src/app/middleware"
	"pulljoker/src/infra/config"
	"pulljoker/src/infra/logger"
)

// Handler upgrades authenticated requests to game sockets.
type Handler struct {
	hub      *Hub
	cfg      config.WebSocketConfig
	log      *slog.Logger
	upgrader websocket.Upgrader
	dispatch *dispatcher
}

func NewHandler(hub *Hub, games GameCommands, cfg config.WebSocketConfig, log *slog.Logger) *Handler {
	origins := cfg.Origins()
	return &Handler{
		hub: hub,
		cfg: cfg,
		log: logger.WithComponent(log, "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || slices.Contains(origins, origin)
			},
		},
		dispatch: &dispatcher{hub: hub, games: games},
	}
}

// Serve runs one connection until it closes. It expects PlayerAuth to have
// identified the caller.
// GET /ws?playerId=&playerName=
func (h *Handler) Serve(c *gin.Context) {
	player, ok := middleware.GetPlayer(c)
	if !ok {
		response.Unauthorized(c, "missing player id", middleware.GetRequestID(c))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered the request.
		h.log.Warn("websocket upgrade failed", "player_id", player.ID, "error", err)
		return
	}

	log := logger.WithPlayer(h.log, player.ID)
	client := newClient(h.hub, conn, h.cfg, log, player.ID, player.Name)
	if !h.hub.register(client) {
		_ = conn.Close()
		return
	}
	log.Info("player connected", "name", player.Name)

	// Commands outlive the HTTP request that opened the socket.
	ctx := context.WithoutCancel(c.Request.Context())
	go client.writePump()
	client.readPump(ctx, h.dispatch.handle)
	log.Info("player disconnected")
}
