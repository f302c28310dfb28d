// Package score tracks cumulative War results per player.
package score

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tkahng/war"
)

// Player identity keys used for persisted scores.
const (
	Player1 = "player_1"
	Player2 = "player_2"
)

// ErrNotFound is returned when a game record does not exist.
var ErrNotFound = errors.New("game not found")

// Scores holds the number of games won by each player.
type Scores struct {
	Player1 int64 `json:"player_1"`
	Player2 int64 `json:"player_2"`
}

// Add returns s with one more win credited for result. Draws change nothing.
func (s Scores) Add(result war.Result) Scores {
	switch result {
	case war.Player1Wins:
		s.Player1++
	case war.Player2Wins:
		s.Player2++
	}
	return s
}

// GameRecord is one completed game.
type GameRecord struct {
	ID       string     `json:"id"`
	Result   war.Result `json:"result"`
	Rounds   int        `json:"rounds"`
	Wars     int        `json:"wars"`
	Seed     string     `json:"seed,omitempty"`
	PlayedAt time.Time  `json:"played_at"`
}

// Validate normalizes the record and checks its required fields.
func (r *GameRecord) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if _, err := r.Result.MarshalText(); err != nil {
		return err
	}
	if r.Rounds < 0 || r.Wars < 0 {
		return fmt.Errorf("rounds and wars must be non-negative")
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now().UTC()
	}
	return nil
}

// Key returns the persisted player key credited with result, or "" for a draw.
func Key(result war.Result) string {
	switch result {
	case war.Player1Wins:
		return Player1
	case war.Player2Wins:
		return Player2
	default:
		return ""
	}
}

// Store records completed games and serves the running tally.
//
// RecordGame must credit the winner and append the record atomically so
// concurrent callers never lose an increment.
type Store interface {
	RecordGame(ctx context.Context, record GameRecord) error
	Scores(ctx context.Context) (Scores, error)
	// ListGames returns up to limit records, newest first.
	ListGames(ctx context.Context, limit int) ([]GameRecord, error)
	// GetGame ignores surrounding space in id, as RecordGame does.
	GetGame(ctx context.Context, id string) (GameRecord, error)
	Close() error
}
