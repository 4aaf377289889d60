package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

var ErrClosed = errors.New("journal closed")

// DefaultLeaderboardLimit is used when a caller asks for a non-positive limit
const DefaultLeaderboardLimit = 10

// SQLiteStore keeps finished games in a SQLite database
type SQLiteStore struct {
	db *sql.DB

	once   sync.Once
	closed atomic.Bool
}

var _ service.Journal = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the journal database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			level TEXT NOT NULL,
			outcome TEXT NOT NULL,
			moves INTEGER NOT NULL,
			energy_left INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS games_level_outcome_moves ON games(level, outcome, moves);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database. Calling it more than once is harmless.
func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		err = s.db.Close()
	})
	return err
}

// RecordGame stores a finished game. A missing ID or timestamp is filled in.
func (s *SQLiteStore) RecordGame(ctx context.Context, rec service.GameRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !rec.Outcome.Terminal() {
		return fmt.Errorf("record game: outcome %q is not final", rec.Outcome)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, session_id, level, outcome, moves, energy_left, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Level, string(rec.Outcome), rec.Moves, rec.EnergyLeft,
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record game: %w", err)
	}
	return nil
}

// Leaderboard returns the best won games of a level: fewest moves first, then
// most energy left, then earliest
func (s *SQLiteStore) Leaderboard(ctx context.Context, level string, limit int) ([]*service.GameRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, level, outcome, moves, energy_left, finished_at
		 FROM games
		 WHERE level = ? AND outcome = ?
		 ORDER BY moves ASC, energy_left DESC, finished_at ASC
		 LIMIT ?`,
		level, string(engine.Won), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	records := []*service.GameRecord{}
	for rows.Next() {
		var (
			rec      service.GameRecord
			outcome  string
			finished string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Level, &outcome, &rec.Moves, &rec.EnergyLeft, &finished); err != nil {
			return nil, fmt.Errorf("leaderboard: %w", err)
		}
		rec.Outcome = engine.Outcome(outcome)
		if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			rec.FinishedAt = t
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return records, nil
}

// Count returns how many games of a level ended with outcome
func (s *SQLiteStore) Count(ctx context.Context, level string, outcome engine.Outcome) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE level = ? AND outcome = ?`,
		level, string(outcome),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}
