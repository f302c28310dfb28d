// Package server exposes War games and the score tally over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tkahng/war"
	"github.com/tkahng/war/score"
	"github.com/tkahng/war/web"
	"github.com/tkahng/war/websocket"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// GameServer routes HTTP requests to the broker, the score store and the
// websocket feed.
type GameServer struct {
	broker    *GameBroker
	store     score.Store
	hub       *websocket.Hub
	logger    *slog.Logger
	origins   []string
	mux       *http.ServeMux
	startTime time.Time
}

// NewGameServer creates a new game server
func NewGameServer(broker *GameBroker, store score.Store, hub *websocket.Hub, logger *slog.Logger, origins []string) *GameServer {
	if logger == nil {
		logger = slog.Default()
	}
	gs := &GameServer{
		broker:    broker,
		store:     store,
		hub:       hub,
		logger:    logger,
		origins:   origins,
		mux:       http.NewServeMux(),
		startTime: time.Now(),
	}
	gs.setupRoutes()
	return gs
}

// Handler returns the routes wrapped in CORS, request id and logging
// middleware.
func (gs *GameServer) Handler() http.Handler {
	return Cors(gs.origins)(RequestID(RequestLogger(gs.logger)(gs.mux)))
}

// Start starts the game server
func (gs *GameServer) Start() {
	gs.broker.Start()
}

// Stop waits for running games and disconnects websocket clients.
func (gs *GameServer) Stop(ctx context.Context) error {
	gs.broker.Stop()
	return gs.hub.Close(ctx)
}

// setupRoutes configures HTTP routes
func (gs *GameServer) setupRoutes() {
	gs.mux.HandleFunc("GET /{$}", web.ServeHTML)
	gs.mux.HandleFunc("GET /start", gs.handleStart)
	gs.mux.HandleFunc("GET /scores", gs.handleScores)
	gs.mux.HandleFunc("POST /api/games", gs.handlePlay)
	gs.mux.HandleFunc("GET /api/games", gs.handleListGames)
	gs.mux.HandleFunc("GET /api/games/{id}", gs.handleGetGame)
	gs.mux.HandleFunc("GET /api/games/{id}/replay", gs.handleReplay)
	gs.mux.HandleFunc("GET /api/ws", gs.handleWebSocket)
	gs.mux.HandleFunc("GET /api/stats", gs.handleStats)
	gs.mux.HandleFunc("GET /api/health", gs.handleHealth)
}

// handleStart plays one game and answers with the winner as plain text.
func (gs *GameServer) handleStart(w http.ResponseWriter, r *http.Request) {
	record, err := gs.broker.PlayGame(r.Context())
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(startText(record.Result)))
}

func startText(result war.Result) string {
	if result == war.Draw {
		return "Draw!"
	}
	return result.String()
}

func (gs *GameServer) handleScores(w http.ResponseWriter, r *http.Request) {
	scores, err := gs.store.Scores(r.Context())
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (gs *GameServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	record, err := gs.broker.PlayGame(r.Context())
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (gs *GameServer) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}
	games, err := gs.store.ListGames(r.Context(), limit)
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	if games == nil {
		games = []score.GameRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (gs *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	record, err := gs.store.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type replayResponse struct {
	Game    score.GameRecord `json:"game"`
	Replay  war.Outcome      `json:"replay"`
	Matches bool             `json:"matches"`
}

func (gs *GameServer) handleReplay(w http.ResponseWriter, r *http.Request) {
	record, outcome, err := gs.broker.Replay(r.Context(), r.PathValue("id"))
	if err != nil {
		gs.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replayResponse{
		Game:    record,
		Replay:  outcome,
		Matches: outcome.Result == record.Result && outcome.Rounds == record.Rounds && outcome.Wars == record.Wars,
	})
}

// handleWebSocket subscribes the client to the game feed, starting with the
// current scores.
func (gs *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gs.hub.Serve(w, r, func() *websocket.Message {
		scores, err := gs.store.Scores(r.Context())
		if err != nil {
			gs.logger.WarnContext(r.Context(), "failed to load scores for websocket greeting", slog.Any("error", err))
			return nil
		}
		return &websocket.Message{Type: websocket.MessageTypeScores, Data: scores}
	})
}

// handleStats provides server statistics
func (gs *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"activeGames":    gs.broker.GetActiveGameCount(),
		"availableSlots": gs.broker.GetAvailableSlots(),
		"gamesPlayed":    gs.broker.GamesPlayed(),
		"clients":        gs.hub.Clients(),
		"timestamp":      time.Now().Unix(),
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth provides health check endpoint
func (gs *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status": "ok",
		"uptime": time.Since(gs.startTime).String(),
	}
	writeJSON(w, http.StatusOK, health)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (gs *GameServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, score.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAtCapacity), errors.Is(err, ErrBrokerStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		gs.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", getRequestIDFromContext(r.Context())),
			slog.Any("error", err),
		)
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
