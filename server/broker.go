package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tkahng/war"
	"github.com/tkahng/war/random"
	"github.com/tkahng/war/score"
	"github.com/tkahng/war/telemetry"
	"github.com/tkahng/war/websocket"
)

var (
	// ErrAtCapacity is returned when no game slot frees up before the
	// acquire timeout.
	ErrAtCapacity = errors.New("server at capacity")
	// ErrBrokerStopped is returned once Stop has been called.
	ErrBrokerStopped = errors.New("broker is shutting down")
)

// Publisher receives a message after every recorded game.
type Publisher interface {
	Publish(msg websocket.Message) error
}

// GameEvent is the payload published after a game is recorded.
type GameEvent struct {
	Game   score.GameRecord `json:"game"`
	Scores score.Scores     `json:"scores"`
}

// GameBroker runs games on behalf of HTTP callers, bounding how many play at
// once, and records every finished game.
type GameBroker struct {
	// Configuration
	engine             war.Engine
	maxConcurrentGames int
	acquireTimeout     time.Duration
	metricsInterval    time.Duration

	store  score.Store
	feed   Publisher
	logger *slog.Logger
	tracer trace.Tracer

	// Concurrency control
	gameSemaphore chan struct{}
	activeGames   atomic.Int64
	gamesPlayed   atomic.Int64

	newSeed func() (random.Seed, error)

	// Lifecycle management
	ctx     context.Context
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

type BrokerOption func(*GameBroker)

// WithAcquireTimeout sets how long PlayGame waits for a free slot.
func WithAcquireTimeout(d time.Duration) BrokerOption {
	return func(gb *GameBroker) {
		if d > 0 {
			gb.acquireTimeout = d
		}
	}
}

// WithMetricsInterval sets how often the monitoring worker logs.
func WithMetricsInterval(d time.Duration) BrokerOption {
	return func(gb *GameBroker) {
		if d > 0 {
			gb.metricsInterval = d
		}
	}
}

// WithFeed publishes every recorded game to p.
func WithFeed(p Publisher) BrokerOption {
	return func(gb *GameBroker) {
		gb.feed = p
	}
}

// WithSeedSource replaces crypto/rand seeding.
func WithSeedSource(fn func() (random.Seed, error)) BrokerOption {
	return func(gb *GameBroker) {
		if fn != nil {
			gb.newSeed = fn
		}
	}
}

// NewGameBroker creates a new game broker
func NewGameBroker(engine war.Engine, store score.Store, maxConcurrentGames int, logger *slog.Logger, opts ...BrokerOption) *GameBroker {
	if maxConcurrentGames <= 0 {
		maxConcurrentGames = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	gb := &GameBroker{
		engine:             engine,
		maxConcurrentGames: maxConcurrentGames,
		acquireTimeout:     5 * time.Second,
		metricsInterval:    10 * time.Second,
		store:              store,
		logger:             logger,
		tracer:             telemetry.Tracer("github.com/tkahng/war/server"),
		gameSemaphore:      make(chan struct{}, maxConcurrentGames),
		newSeed:            random.NewSeed,
		ctx:                ctx,
		cancel:             cancel,
		wg:                 new(sync.WaitGroup),
	}
	for _, opt := range opts {
		opt(gb)
	}
	return gb
}

// Start begins the monitoring worker.
func (gb *GameBroker) Start() {
	gb.wg.Add(1)
	go gb.monitoringWorker()

	gb.logger.Info("game broker started", slog.Int("max_concurrent_games", gb.maxConcurrentGames))
}

// Stop rejects new games and waits for running ones to finish.
func (gb *GameBroker) Stop() {
	gb.mu.Lock()
	gb.stopped = true
	gb.cancel()
	gb.mu.Unlock()
	gb.wg.Wait()

	gb.logger.Info("game broker stopped", slog.Int64("games_played", gb.gamesPlayed.Load()))
}

// PlayGame plays one game with a fresh seed, records it and publishes the
// result with the updated tally.
func (gb *GameBroker) PlayGame(ctx context.Context) (score.GameRecord, error) {
	ctx, span := gb.tracer.Start(ctx, "war.play_game")
	defer span.End()

	release, err := gb.acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, err
	}
	defer release()

	seed, err := gb.newSeed()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, err
	}

	start := time.Now()
	outcome := gb.engine.Play(random.New(seed))
	record := score.GameRecord{
		ID:       uuid.NewString(),
		Result:   outcome.Result,
		Rounds:   outcome.Rounds,
		Wars:     outcome.Wars,
		Seed:     seed.String(),
		PlayedAt: time.Now().UTC(),
	}
	span.SetAttributes(
		attribute.String("game.id", record.ID),
		attribute.String("game.result", score.Key(record.Result)),
		attribute.Int("game.rounds", record.Rounds),
		attribute.Int("game.wars", record.Wars),
	)

	if err := gb.store.RecordGame(ctx, record); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, fmt.Errorf("record game: %w", err)
	}
	gb.gamesPlayed.Add(1)

	gb.logger.Info("game finished",
		slog.String("game_id", record.ID),
		slog.String("result", record.Result.String()),
		slog.Int("rounds", record.Rounds),
		slog.Int("wars", record.Wars),
		slog.Duration("elapsed", time.Since(start)),
	)

	gb.publish(ctx, record)
	return record, nil
}

// Replay plays the game recorded under id again from its seed. It takes a
// game slot like PlayGame but records nothing.
func (gb *GameBroker) Replay(ctx context.Context, id string) (score.GameRecord, war.Outcome, error) {
	ctx, span := gb.tracer.Start(ctx, "war.replay_game")
	defer span.End()

	record, err := gb.store.GetGame(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, war.Outcome{}, err
	}
	seed, err := random.ParseSeed(record.Seed)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, war.Outcome{}, fmt.Errorf("game %s: %w", record.ID, err)
	}

	release, err := gb.acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return score.GameRecord{}, war.Outcome{}, err
	}
	defer release()

	outcome := gb.engine.Play(random.New(seed))
	span.SetAttributes(
		attribute.String("game.id", record.ID),
		attribute.String("game.result", score.Key(outcome.Result)),
		attribute.Int("game.rounds", outcome.Rounds),
	)
	return record, outcome, nil
}

func (gb *GameBroker) acquire(ctx context.Context) (func(), error) {
	if gb.ctx.Err() != nil {
		return nil, ErrBrokerStopped
	}

	timer := time.NewTimer(gb.acquireTimeout)
	defer timer.Stop()

	select {
	case gb.gameSemaphore <- struct{}{}:
		// Got slot, proceed
	case <-timer.C:
		return nil, ErrAtCapacity
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-gb.ctx.Done():
		return nil, ErrBrokerStopped
	}

	gb.mu.RLock()
	defer gb.mu.RUnlock()
	if gb.stopped {
		<-gb.gameSemaphore
		return nil, ErrBrokerStopped
	}
	gb.wg.Add(1)
	gb.activeGames.Add(1)
	return func() {
		gb.activeGames.Add(-1)
		<-gb.gameSemaphore
		gb.wg.Done()
	}, nil
}

func (gb *GameBroker) publish(ctx context.Context, record score.GameRecord) {
	if gb.feed == nil {
		return
	}
	scores, err := gb.store.Scores(ctx)
	if err != nil {
		gb.logger.Warn("failed to load scores for feed", slog.Any("error", err))
		return
	}
	err = gb.feed.Publish(websocket.Message{
		Type: websocket.MessageTypeGameResult,
		Data: GameEvent{Game: record, Scores: scores},
	})
	if err != nil && !errors.Is(err, websocket.ErrHubClosed) {
		gb.logger.Warn("failed to publish game", slog.String("game_id", record.ID), slog.Any("error", err))
	}
}

// monitoringWorker provides metrics and monitoring
func (gb *GameBroker) monitoringWorker() {
	defer gb.wg.Done()

	ticker := time.NewTicker(gb.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gb.logMetrics()
		case <-gb.ctx.Done():
			return
		}
	}
}

func (gb *GameBroker) logMetrics() {
	gb.logger.Info("broker metrics",
		slog.Int("active_games", gb.GetActiveGameCount()),
		slog.Int("available_slots", gb.GetAvailableSlots()),
		slog.Int64("games_played", gb.GamesPlayed()),
	)
}

// GetActiveGameCount returns the number of games being played right now.
func (gb *GameBroker) GetActiveGameCount() int {
	return int(gb.activeGames.Load())
}

// GetAvailableSlots returns the number of free game slots.
func (gb *GameBroker) GetAvailableSlots() int {
	return gb.maxConcurrentGames - len(gb.gameSemaphore)
}

// GamesPlayed returns the number of games recorded since the broker was created.
func (gb *GameBroker) GamesPlayed() int64 {
	return gb.gamesPlayed.Load()
}
