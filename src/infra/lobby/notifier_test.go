package lobby

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulljoker/src/core/domain"
	"pulljoker/src/infra/config"
	"pulljoker/src/infra/logger"
)

func TestGameURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000?gameId=g1", GameURL("http://localhost:3000", "g1"))
	assert.Equal(t, "https://play.example/room?gameId=a+b&lang=en", GameURL("https://play.example/room?lang=en", "a b"))
}

func lobbyConfig(url string) config.LobbyConfig {
	return config.LobbyConfig{BackendURL: url, FrontendURL: "http://front", NotifyTimeout: time.Second}
}

func TestNotifyGameEnded(t *testing.T) {
	var calls atomic.Int32
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, gameEndPath, r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var body gameEndRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got <- body.GameURL
	}))
	defer srv.Close()

	n := NewNotifier(lobbyConfig(srv.URL+"/"), srv.Client(), logger.Discard())
	require.NoError(t, n.NotifyGameEnded(context.Background(), "g1"))
	assert.Equal(t, "http://front?gameId=g1", <-got)
	assert.EqualValues(t, 2, calls.Load(), "5xx is retried")
}

func TestNotifyGameEndedClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewNotifier(lobbyConfig(srv.URL), srv.Client(), logger.Discard())
	require.Error(t, n.NotifyGameEnded(context.Background(), "g1"))
	assert.EqualValues(t, 1, calls.Load())
}

func TestBroadcastOnlyNotifiesOnGameEnd(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := NewNotifier(lobbyConfig(srv.URL), srv.Client(), logger.Discard())
	state := domain.GameState{ID: "g1"}
	now := time.Now()

	n.Broadcast(context.Background(), state, []domain.Event{
		domain.NewEvent(domain.HandsCompleted{GameID: "g1", Ranking: 3}, now),
	})
	n.Broadcast(context.Background(), state, []domain.Event{
		domain.NewEvent(domain.HandsCompleted{GameID: "g1", Ranking: 3}, now),
		domain.NewEvent(domain.GameEnded{GameID: "g1", Status: domain.StatusEnd}, now),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.Close(ctx))
	assert.EqualValues(t, 1, calls.Load())
}

func TestDisabledNotifier(t *testing.T) {
	n := NewNotifier(config.LobbyConfig{}, nil, logger.Discard())
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Health(context.Background()))
	n.Broadcast(context.Background(), domain.GameState{ID: "g1"}, []domain.Event{
		domain.NewEvent(domain.GameEnded{GameID: "g1"}, time.Now()),
	})
	assert.NoError(t, n.Close(context.Background()))
}
