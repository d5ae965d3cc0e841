// Package lobby talks to the lobby service that hands out game rooms.
package lobby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"pulljoker/src/core/domain"
	"pulljoker/src/infra/config"
)

const gameEndPath = "/api/rooms/gameEnd"

// GameURL is the frontend address of a game.
func GameURL(frontendURL, gameID string) string {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return frontendURL + "?gameId=" + url.QueryEscape(gameID)
	}
	q := u.Query()
	q.Set("gameId", gameID)
	u.RawQuery = q.Encode()
	return u.String()
}

type gameEndRequest struct {
	GameURL string `json:"gameUrl"`
}

// Notifier tells the lobby when a game has ended so it can close the room.
// It implements ports.Broadcaster; notifications are sent in the background.
type Notifier struct {
	cfg    config.LobbyConfig
	client *http.Client
	log    *slog.Logger

	wg sync.WaitGroup
}

func NewNotifier(cfg config.LobbyConfig, client *http.Client, log *slog.Logger) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: cfg.NotifyTimeout}
	}
	return &Notifier{cfg: cfg, client: client, log: log}
}

// Enabled reports whether a lobby backend is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.BackendURL != ""
}

// Broadcast implements ports.Broadcaster.
func (n *Notifier) Broadcast(ctx context.Context, state domain.GameState, events []domain.Event) {
	if !n.Enabled() {
		return
	}
	for _, ev := range events {
		if ev.Type != domain.EventGameEnded {
			continue
		}
		gameID := state.ID
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			if err := n.NotifyGameEnded(context.WithoutCancel(ctx), gameID); err != nil {
				n.log.Warn("lobby notification failed", "game_id", gameID, "error", err)
			}
		}()
	}
}

// NotifyGameEnded posts the game URL to the lobby, retrying transient failures.
func (n *Notifier) NotifyGameEnded(ctx context.Context, gameID string) error {
	body, err := json.Marshal(gameEndRequest{GameURL: GameURL(n.cfg.FrontendURL, gameID)})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	endpoint := strings.TrimRight(n.cfg.BackendURL, "/") + gameEndPath

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, n.post(ctx, endpoint, body)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		return err
	}
	n.log.Info("lobby notified of game end", "game_id", gameID)
	return nil
}

func (n *Notifier) post(ctx context.Context, endpoint string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.NotifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("lobby answered %s", resp.Status)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("lobby answered %s", resp.Status))
	}
	return nil
}

// Close waits for in-flight notifications, up to ctx's deadline.
func (n *Notifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for lobby notifications: %w", ctx.Err())
	}
}

// Health implements ports.ExternalService. The lobby is optional, so only a
// malformed URL counts as unhealthy.
func (n *Notifier) Health(context.Context) error {
	if !n.Enabled() {
		return nil
	}
	if _, err := url.ParseRequestURI(n.cfg.BackendURL); err != nil {
		return fmt.Errorf("lobby backend url: %w", err)
	}
	return nil
}
