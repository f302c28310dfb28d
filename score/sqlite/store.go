// Package sqlite provides a SQLite-backed score.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tkahng/war/score"
	"github.com/tkahng/war/score/sqlite/migrations"
)

// Store persists scores and game history in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ score.Store = (*Store)(nil)

// Open opens the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps score increments serialized.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordGame appends the record and credits the winner in one transaction.
func (s *Store) RecordGame(ctx context.Context, record score.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	result, err := record.Result.MarshalText()
	if err != nil {
		return fmt.Errorf("record game: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO games (
	id,
	result,
	rounds,
	wars,
	seed,
	played_at
) VALUES (?, ?, ?, ?, ?, ?)
`,
		record.ID,
		string(result),
		record.Rounds,
		record.Wars,
		record.Seed,
		record.PlayedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	if player := score.Key(record.Result); player != "" {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO scores (player, score) VALUES (?, 1)
ON CONFLICT (player) DO UPDATE SET score = score + 1
`, player); err != nil {
			return fmt.Errorf("increment score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record game: %w", err)
	}
	return nil
}

// Scores returns the tally, creating zero rows for players seen for the
// first time.
func (s *Store) Scores(ctx context.Context) (score.Scores, error) {
	if err := ctx.Err(); err != nil {
		return score.Scores{}, err
	}
	if s == nil || s.sqlDB == nil {
		return score.Scores{}, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return score.Scores{}, fmt.Errorf("begin read scores: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO scores (player, score) VALUES (?, 0), (?, 0)",
		score.Player1, score.Player2,
	); err != nil {
		return score.Scores{}, fmt.Errorf("init scores: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT player, score FROM scores WHERE player IN (?, ?)", score.Player1, score.Player2)
	if err != nil {
		return score.Scores{}, fmt.Errorf("read scores: %w", err)
	}
	defer rows.Close()

	var out score.Scores
	for rows.Next() {
		var (
			player string
			n      int64
		)
		if err := rows.Scan(&player, &n); err != nil {
			return score.Scores{}, fmt.Errorf("scan score: %w", err)
		}
		switch player {
		case score.Player1:
			out.Player1 = n
		case score.Player2:
			out.Player2 = n
		}
	}
	if err := rows.Err(); err != nil {
		return score.Scores{}, fmt.Errorf("iterate scores: %w", err)
	}
	if err := rows.Close(); err != nil {
		return score.Scores{}, fmt.Errorf("close scores: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return score.Scores{}, fmt.Errorf("commit read scores: %w", err)
	}
	return out, nil
}

// ListGames returns newest-first game records.
func (s *Store) ListGames(ctx context.Context, limit int) ([]score.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, result, rounds, wars, seed, played_at
FROM games
ORDER BY played_at DESC, seq DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	records := make([]score.GameRecord, 0, limit)
	for rows.Next() {
		record, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return records, nil
}

// GetGame returns one game record by id.
func (s *Store) GetGame(ctx context.Context, id string) (score.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return score.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return score.GameRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, result, rounds, wars, seed, played_at
FROM games
WHERE id = ?
`, strings.TrimSpace(id))
	record, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return score.GameRecord{}, score.ErrNotFound
	}
	return record, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (score.GameRecord, error) {
	var (
		record   score.GameRecord
		result   string
		playedAt int64
	)
	if err := row.Scan(&record.ID, &result, &record.Rounds, &record.Wars, &record.Seed, &playedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return score.GameRecord{}, err
		}
		return score.GameRecord{}, fmt.Errorf("scan game: %w", err)
	}
	if err := record.Result.UnmarshalText([]byte(result)); err != nil {
		return score.GameRecord{}, fmt.Errorf("scan game: %w", err)
	}
	record.PlayedAt = time.UnixMilli(playedAt).UTC()
	return record, nil
}
