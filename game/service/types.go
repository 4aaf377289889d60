package service

import (
	"fmt"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelName      string            `json:"level_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Level          *engine.Level     `json:"level"`
}

// MoveRequest is one movement intent: either a destination cell next to the
// actor or a relative direction
type MoveRequest struct {
	Row       *int   `json:"row,omitempty"`
	Column    *int   `json:"column,omitempty"`
	Direction string `json:"direction,omitempty"`
	Reset     bool   `json:"reset,omitempty"`
}

// Destination builds a request that moves toward the given cell
func Destination(c engine.Coordinate) MoveRequest {
	row, column := c.Row, c.Column
	return MoveRequest{Row: &row, Column: &column}
}

// Toward builds a request that steps in a direction
func Toward(d engine.Direction) MoveRequest {
	return MoveRequest{Direction: string(d)}
}

// Validate checks that the request names exactly one kind of intent
func (r MoveRequest) Validate() error {
	hasCell := r.Row != nil || r.Column != nil
	switch {
	case hasCell && r.Direction != "":
		return fmt.Errorf("%w: give either row/column or direction, not both", ErrInvalidRequest)
	case hasCell && (r.Row == nil || r.Column == nil):
		return fmt.Errorf("%w: row and column must be given together", ErrInvalidRequest)
	case !hasCell && r.Direction == "":
		return fmt.Errorf("%w: row/column or direction is required", ErrInvalidRequest)
	}
	return nil
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Outcome     engine.Outcome    `json:"outcome"`
	Success     bool              `json:"success"`
	Reason      string            `json:"reason,omitempty"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	Outcome        engine.Outcome    `json:"outcome"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked|illegal_move|unknown_direction|game_over|won|lost
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos    engine.Coordinate `json:"start_pos"`
	EndPos      engine.Coordinate `json:"end_pos"`
	StartEnergy int               `json:"start_energy"`
	EndEnergy   int               `json:"end_energy"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	GameOver      bool               `json:"game_over"`
	Message       string             `json:"message,omitempty"`
	PossibleMoves []engine.Direction `json:"possible_moves,omitempty"`
	EnergyRisk    string             `json:"energy_risk,omitempty"`
}

// StepInfo is a compact record of one accepted move
type StepInfo struct {
	Idx          int               `json:"idx"`
	Dir          engine.Direction  `json:"dir"`
	From         engine.Coordinate `json:"from"`
	To           engine.Coordinate `json:"to"`
	EnergyBefore int               `json:"energy_before"`
	EnergyAfter  int               `json:"energy_after"`
	Pushed       bool              `json:"pushed,omitempty"`
	Outcome      engine.Outcome    `json:"outcome"`
}

// AttemptInfo details the cell a rejected move was aimed at
type AttemptInfo struct {
	Row    int             `json:"row"`
	Column int             `json:"column"`
	Cell   engine.CellKind `json:"cell"`
	Reason string          `json:"reason"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string             `json:"type"` // "move", "push", "won", "lost", "restart"
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Position  *engine.Coordinate `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// LevelInfo describes a level available in the catalogue
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	MaxEnergy   int    `json:"max_energy"`
	Boxes       int    `json:"boxes"`
}

// HintResult suggests the next move toward a win
type HintResult struct {
	Solvable    bool               `json:"solvable"`
	Direction   engine.Direction   `json:"direction,omitempty"`
	Destination *engine.Coordinate `json:"destination,omitempty"`
	Moves       []engine.Direction `json:"moves,omitempty"`
	MovesNeeded int                `json:"moves_needed"`
	Energy      int                `json:"energy"`
	Message     string             `json:"message"`
}

// GameRecord is the journal entry written when a game ends
type GameRecord struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Level      string         `json:"level"`
	Outcome    engine.Outcome `json:"outcome"`
	Moves      int            `json:"moves"`
	EnergyLeft int            `json:"energy_left"`
	FinishedAt time.Time      `json:"finished_at"`
}
