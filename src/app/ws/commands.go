package ws

import (
	"context"
	"encoding/json"

	"pulljoker/src/core/domain"
	"pulljoker/src/core/projection"
)

// Inbound message types.
const (
	TypeJoinRoom    = "join-room"
	TypeLeaveRoom   = "leave-room"
	TypeStartGame   = "start-game"
	TypeDrawCard    = "draw-card"
	TypeGetGame     = "get-game"
	TypeGetMyStatus = "get-my-status"
)

// GameCommands is what the socket needs from the game service.
type GameCommands interface {
	JoinRoom(ctx context.Context, gameID, playerID, name string) error
	LeaveRoom(ctx context.Context, gameID, playerID string) error
	StartGame(ctx context.Context, gameID, requesterID string) error
	DrawCard(ctx context.Context, gameID, fromPlayerID, toPlayerID string, cardIndex int) error
	GetGame(ctx context.Context, gameID string) (domain.GameState, error)
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gameRef struct {
	GameID string `json:"gameId"`
}

type drawCardRequest struct {
	GameID       string `json:"gameId"`
	FromPlayerID string `json:"fromPlayerId"`
	CardIndex    int    `json:"cardIndex"`
}

// dispatcher routes inbound frames to game commands. Results reach players
// through the broadcaster; only failures and queries are answered here.
type dispatcher struct {
	hub   *Hub
	games GameCommands
}

func (d *dispatcher) handle(ctx context.Context, c *Client, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		d.reject(c, in.Type, domain.NewValidationError("", "malformed message"))
		return
	}
	if err := d.dispatch(ctx, c, in); err != nil {
		d.reject(c, in.Type, err)
	}
}

func (d *dispatcher) dispatch(ctx context.Context, c *Client, in inbound) error {
	switch in.Type {
	case TypeJoinRoom:
		ref, err := decodeGameRef(in.Data)
		if err != nil {
			return err
		}
		d.hub.Subscribe(ref.GameID, c)
		err = d.games.JoinRoom(ctx, ref.GameID, c.playerID, c.playerName)
		if err == nil {
			return nil
		}
		// A seated player reconnecting keeps the subscription and catches up.
		if state, gerr := d.games.GetGame(ctx, ref.GameID); gerr == nil && state.Seat(c.playerID) != domain.NoSeat {
			c.reply(snapshotMessage(state, c.playerID))
			return nil
		}
		d.hub.Unsubscribe(ref.GameID, c)
		return err

	case TypeLeaveRoom:
		ref, err := decodeGameRef(in.Data)
		if err != nil {
			return err
		}
		if err := d.games.LeaveRoom(ctx, ref.GameID, c.playerID); err != nil {
			return err
		}
		d.hub.Unsubscribe(ref.GameID, c)
		return nil

	case TypeStartGame:
		ref, err := decodeGameRef(in.Data)
		if err != nil {
			return err
		}
		return d.games.StartGame(ctx, ref.GameID, c.playerID)

	case TypeDrawCard:
		var req drawCardRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			return domain.NewValidationError("data", "malformed draw-card payload")
		}
		if req.GameID == "" {
			return domain.NewValidationError("gameId", "gameId is required")
		}
		return d.games.DrawCard(ctx, req.GameID, req.FromPlayerID, c.playerID, req.CardIndex)

	case TypeGetGame:
		ref, err := decodeGameRef(in.Data)
		if err != nil {
			return err
		}
		d.hub.Subscribe(ref.GameID, c)
		return d.sendSnapshot(ctx, c, ref.GameID)

	case TypeGetMyStatus:
		c.reply(projection.Message{
			Type: projection.TypeMyStatusResult,
			Data: projection.MyStatusData{ID: c.playerID, Name: c.playerName},
		})
		return nil

	default:
		return domain.NewValidationError("type", "unknown message type "+in.Type)
	}
}

func (d *dispatcher) sendSnapshot(ctx context.Context, c *Client, gameID string) error {
	state, err := d.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	c.reply(snapshotMessage(state, c.playerID))
	return nil
}

func snapshotMessage(state domain.GameState, viewer string) projection.Message {
	return projection.Message{
		Type: projection.TypeGetGameResult,
		Data: projection.Snapshot(state, viewer),
	}
}

// reject answers the originating connection with a validation-error.
// Internal failures are not described to the client.
func (d *dispatcher) reject(c *Client, typ string, err error) {
	msg := err.Error()
	switch {
	case domain.IsValidationError(err), domain.IsNotFound(err), domain.IsForbidden(err), domain.IsConflict(err):
		c.log.Warn("command rejected", "type", typ, "error", err)
	default:
		c.log.Error("command failed", "type", typ, "error", err)
		msg = "internal error"
	}
	c.reply(projection.Message{Type: projection.TypeValidationError, Data: msg})
}

func decodeGameRef(data json.RawMessage) (gameRef, error) {
	var ref gameRef
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ref); err != nil {
			return ref, domain.NewValidationError("data", "malformed payload")
		}
	}
	if ref.GameID == "" {
		return ref, domain.NewValidationError("gameId", "gameId is required")
	}
	return ref, nil
}
