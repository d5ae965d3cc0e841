package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pulljoker/src/core/projection"
	"pulljoker/src/infra/config"
)

// Client is one websocket connection of an identified player.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	cfg  config.WebSocketConfig
	log  *slog.Logger

	playerID   string
	playerName string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig, log *slog.Logger, playerID, playerName string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		cfg:        cfg,
		log:        log,
		playerID:   playerID,
		playerName: playerName,
		send:       make(chan []byte, cfg.SendBuffer),
		done:       make(chan struct{}),
	}
}

// enqueue never blocks; a client that cannot keep up is disconnected.
func (c *Client) enqueue(raw []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- raw:
	default:
		c.log.Warn("slow client, disconnecting")
		c.close()
	}
}

// reply sends msg to this connection only.
func (c *Client) reply(msg projection.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("encode reply", "type", msg.Type, "error", err)
		return
	}
	c.enqueue(raw)
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) pongWait() time.Duration {
	return c.cfg.PingInterval + c.cfg.WriteWait
}

// readPump decodes frames and hands them to handle until the peer goes away.
func (c *Client) readPump(ctx context.Context, handle func(context.Context, *Client, []byte)) {
	defer func() {
		c.hub.unregister(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket closed unexpectedly", "error", err)
			}
			return
		}
		handle(ctx, c, data)
	}
}

// writePump owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.drain()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		}
	}
}

// drain flushes messages queued before the close.
func (c *Client) drain() {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
