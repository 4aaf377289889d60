package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLevelNotFound   = errors.New("level not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelName string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelName string, level *engine.Level) error
	Leaderboard(ctx context.Context, levelName string, limit int) ([]*GameRecord, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, level *engine.Level) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	LastAccessed(id string) (time.Time, error)
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(name string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.Level
	SaveLevel(name string, level *engine.Level) error
}

// Journal stores finished games
type Journal interface {
	RecordGame(ctx context.Context, rec GameRecord) error
	Leaderboard(ctx context.Context, level string, limit int) ([]*GameRecord, error)
}

// Session represents an active game session. It owns exactly one game, which
// Restart replaces wholesale.
type Session struct {
	ID             string
	Game           *engine.Game
	Level          *engine.Level
	LevelID        string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// NewSession builds a session playing a fresh game of level
func NewSession(id string, level *engine.Level) (*Session, error) {
	game, err := engine.NewGame(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:             id,
		Game:           game,
		Level:          level,
		LevelID:        level.Name,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

// Restart discards the current game and starts over from the level
func (s *Session) Restart() error {
	game, err := engine.NewGame(s.Level)
	if err != nil {
		return err
	}
	s.Game = game
	return nil
}
