package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulljoker/src/app/ws"
	"pulljoker/src/core/ports"
	"pulljoker/src/core/usecase"
	"pulljoker/src/infra/config"
	"pulljoker/src/infra/logger"
	"pulljoker/src/infra/repo"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("APP_GIN_MODE", "test")
	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.Discard()
	store := repo.NewMemoryEventStore()
	hub := ws.NewHub(log)
	t.Cleanup(hub.Close)

	return New(cfg, log, Deps{
		Games:  usecase.NewGameService(store, ports.Broadcasters{ws.NewBroadcaster(hub, log)}, log),
		Health: usecase.NewHealthService(log, store),
		Hub:    hub,
	})
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/detailed", http.StatusOK},
		{http.MethodPost, "/api/games", http.StatusCreated},
		{http.MethodGet, "/api/games/x", http.StatusUnauthorized},
		{http.MethodGet, "/ws", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Router().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?playerId=A", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
