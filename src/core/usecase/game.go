package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pulljoker/src/core/domain"
	"pulljoker/src/core/ports"
)

// GameService runs game commands. Each command loads the game's history,
// rebuilds the aggregate, runs exactly one command, and appends the produced
// events at the version it read. Losing an append race re-runs the whole
// cycle under the retry policy.
type GameService struct {
	store       ports.EventStore
	broadcaster ports.Broadcaster
	log         *slog.Logger
	tracer      trace.Tracer

	retry      RetryPolicy
	gameOpts   []domain.GameOption
	randomDraw domain.Randomizer
	newID      func() string
}

// GameServiceOption configures a GameService.
type GameServiceOption func(*GameService)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) GameServiceOption {
	return func(s *GameService) { s.retry = p }
}

// WithGameOptions is passed to every rehydrated game.
func WithGameOptions(opts ...domain.GameOption) GameServiceOption {
	return func(s *GameService) { s.gameOpts = append(s.gameOpts, opts...) }
}

// WithRandomDraw makes the server pick the drawn card, ignoring the
// requested index. r is shared by every command and is synchronized here.
func WithRandomDraw(r domain.Randomizer) GameServiceOption {
	return func(s *GameService) { s.randomDraw = domain.Synchronized(r) }
}

// WithIDGenerator overrides how new game ids are made.
func WithIDGenerator(fn func() string) GameServiceOption {
	return func(s *GameService) { s.newID = fn }
}

// NewGameService creates a new GameService.
func NewGameService(store ports.EventStore, broadcaster ports.Broadcaster, log *slog.Logger, opts ...GameServiceOption) *GameService {
	s := &GameService{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
		tracer:      otel.Tracer("pulljoker/usecase"),
		retry:       DefaultRetryPolicy(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom opens a new game and returns its id.
func (s *GameService) CreateRoom(ctx context.Context) (string, error) {
	id := s.newID()
	ctx, span := s.tracer.Start(ctx, "GameService.CreateRoom", trace.WithAttributes(attribute.String("game.id", id)))
	defer span.End()

	g, err := domain.NewGame(id, s.gameOpts...)
	if err != nil {
		return "", s.fail(span, "create room", id, err)
	}
	if err := s.store.Append(ctx, id, 0, g.PendingEvents()); err != nil {
		return "", s.fail(span, "create room", id, fmt.Errorf("append: %w", err))
	}
	s.log.Info("room created", "game_id", id)
	return id, nil
}

// JoinRoom seats playerID in the game.
func (s *GameService) JoinRoom(ctx context.Context, gameID, playerID, name string) error {
	return s.execute(ctx, "JoinRoom", gameID, func(g *domain.Game) error {
		return g.JoinRoom(playerID, name)
	})
}

// LeaveRoom frees playerID's seat before the game starts.
func (s *GameService) LeaveRoom(ctx context.Context, gameID, playerID string) error {
	return s.execute(ctx, "LeaveRoom", gameID, func(g *domain.Game) error {
		return g.LeaveRoom(playerID)
	})
}

// StartGame deals the cards. requesterID must be seated.
func (s *GameService) StartGame(ctx context.Context, gameID, requesterID string) error {
	return s.execute(ctx, "StartGame", gameID, func(g *domain.Game) error {
		return g.Start(requesterID)
	})
}

// DrawCard lets toPlayerID take the card at cardIndex from fromPlayerID.
func (s *GameService) DrawCard(ctx context.Context, gameID, fromPlayerID, toPlayerID string, cardIndex int) error {
	return s.execute(ctx, "DrawCard", gameID, func(g *domain.Game) error {
		idx := cardIndex
		if s.randomDraw != nil {
			if cur, ok := g.State().CurrentPlayer(); ok && len(cur.Hand) > 0 {
				idx = s.randomDraw.IntN(len(cur.Hand))
			}
		}
		return g.DrawCard(fromPlayerID, toPlayerID, idx)
	})
}

// GetGame returns the current state of a game.
func (s *GameService) GetGame(ctx context.Context, gameID string) (domain.GameState, error) {
	ctx, span := s.tracer.Start(ctx, "GameService.GetGame", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	history, err := s.store.LoadHistory(ctx, gameID)
	if err != nil {
		return domain.GameState{}, s.fail(span, "get game", gameID, err)
	}
	g, err := domain.RehydrateGame(history, s.gameOpts...)
	if err != nil {
		return domain.GameState{}, s.fail(span, "get game", gameID, err)
	}
	return g.State(), nil
}

func (s *GameService) execute(ctx context.Context, name, gameID string, command func(*domain.Game) error) error {
	ctx, span := s.tracer.Start(ctx, "GameService."+name, trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	var attempts int
	g, err := retryOnConflict(ctx, s.retry, func(attempt int) (*domain.Game, error) {
		attempts = attempt
		return s.runOnce(ctx, gameID, command)
	}, func(err error, wait time.Duration) {
		s.log.Debug("retrying after append conflict",
			"command", name, "game_id", gameID, "wait", wait, "error", err)
	})
	span.SetAttributes(attribute.Int("command.attempts", attempts))
	if err != nil {
		return s.fail(span, name, gameID, err)
	}

	events := g.PendingEvents()
	span.SetAttributes(attribute.Int("command.events", len(events)))
	if len(events) > 0 {
		s.broadcaster.Broadcast(ctx, g.State(), events)
	}
	return nil
}

// runOnce is one read-execute-write cycle.
func (s *GameService) runOnce(ctx context.Context, gameID string, command func(*domain.Game) error) (*domain.Game, error) {
	version, err := s.store.LoadVersion(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load version: %w", err)
	}
	if version == 0 {
		return nil, domain.NewError(domain.ErrAggregateNotFound, "game %s", gameID)
	}
	history, err := s.store.LoadHistory(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	g, err := domain.RehydrateGame(history, s.gameOpts...)
	if err != nil {
		return nil, err
	}
	if g.Version() != version {
		return nil, domain.NewError(domain.ErrConcurrencyConflict,
			"game %s moved from version %d to %d while loading", gameID, version, g.Version())
	}

	if err := command(g); err != nil {
		return nil, err
	}
	events := g.PendingEvents()
	if len(events) == 0 {
		return g, nil
	}
	if err := s.store.Append(ctx, gameID, version, events); err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	return g, nil
}

func (s *GameService) fail(span trace.Span, op, gameID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	switch {
	case domain.IsValidationError(err), domain.IsForbidden(err), domain.IsNotFound(err):
		s.log.Debug("command rejected", "op", op, "game_id", gameID, "error", err)
	case domain.IsConflict(err):
		s.log.Warn("command conflicted", "op", op, "game_id", gameID, "error", err)
	default:
		s.log.Error("command failed", "op", op, "game_id", gameID, "error", err)
	}
	return err
}
