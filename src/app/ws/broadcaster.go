package ws

import (
	"context"
	"log/slog"
	"sync"

	"pulljoker/src/core/domain"
	"pulljoker/src/core/projection"
)

// Broadcaster publishes committed events, followed by a fresh snapshot,
// to the sockets subscribed to the game.
//
// Commands on one game may commit in one order and reach Broadcast in
// another. Events are always delivered; a snapshot older than the last one
// delivered for the same game is dropped, so the latest get-game-result a
// client holds never goes back in time.
type Broadcaster struct {
	hub *Hub
	log *slog.Logger

	mu     sync.Mutex
	latest map[string]int
}

func NewBroadcaster(hub *Hub, log *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, log: log, latest: make(map[string]int)}
}

// Broadcast implements ports.Broadcaster.
func (b *Broadcaster) Broadcast(_ context.Context, state domain.GameState, events []domain.Event) {
	envs, err := projection.Project(events)
	if err != nil {
		b.log.Error("project events", "game_id", state.ID, "error", err)
		return
	}
	b.hub.Deliver(envs)

	b.mu.Lock()
	defer b.mu.Unlock()
	if state.Version <= b.latest[state.ID] {
		b.log.Debug("stale snapshot dropped",
			"game_id", state.ID, "version", state.Version, "latest", b.latest[state.ID])
		return
	}
	b.hub.Deliver(projection.SnapshotEnvelopes(state))
	if b.hub.RoomSize(state.ID) == 0 {
		delete(b.latest, state.ID)
		return
	}
	b.latest[state.ID] = state.Version
}
