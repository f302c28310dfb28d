package score

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultHistory is the number of games a MemoryStore keeps.
const DefaultHistory = 1000

// MemoryStore keeps scores in atomic counters and a bounded history of recent
// games in memory.
type MemoryStore struct {
	player1 atomic.Int64
	player2 atomic.Int64

	mu      sync.RWMutex
	games   []GameRecord
	byID    map[string]int
	dropped int
	limit   int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store keeping at most history games.
func NewMemoryStore(history int) *MemoryStore {
	if history <= 0 {
		history = DefaultHistory
	}
	return &MemoryStore{
		byID:  map[string]int{},
		limit: history,
	}
}

// RecordGame implements Store.
func (m *MemoryStore) RecordGame(ctx context.Context, record GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record game: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[record.ID]; ok {
		return fmt.Errorf("record game: duplicate id %q", record.ID)
	}
	m.byID[record.ID] = m.dropped + len(m.games)
	m.games = append(m.games, record)
	if len(m.games) > m.limit {
		delete(m.byID, m.games[0].ID)
		m.games = slices.Delete(m.games, 0, 1)
		m.dropped++
	}

	switch Key(record.Result) {
	case Player1:
		m.player1.Add(1)
	case Player2:
		m.player2.Add(1)
	}
	return nil
}

// Scores implements Store.
func (m *MemoryStore) Scores(ctx context.Context) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}
	return Scores{
		Player1: m.player1.Load(),
		Player2: m.player2.Load(),
	}, nil
}

// ListGames implements Store.
func (m *MemoryStore) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	n := min(limit, len(m.games))
	out := make([]GameRecord, 0, n)
	for i := len(m.games) - 1; i >= len(m.games)-n; i-- {
		out = append(out, m.games[i])
	}
	return out, nil
}

// GetGame implements Store.
func (m *MemoryStore) GetGame(ctx context.Context, id string) (GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return GameRecord{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return GameRecord{}, ErrNotFound
	}
	return m.games[idx-m.dropped], nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}
