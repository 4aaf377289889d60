package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/solver"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	journal  Journal
	mu       sync.RWMutex
}

// Option configures optional collaborators of the game service
type Option func(*gameServiceImpl)

// WithJournal records every finished game in j
func WithJournal(j Journal) Option {
	return func(s *gameServiceImpl) {
		s.journal = j
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session playing levelName, or the default
// level when levelName is empty
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	levelID := levelName
	if levelName != "" {
		var err error
		level, err = s.levels.LoadLevel(levelName)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				return nil, fmt.Errorf("%w: '%s', available levels: %v", ErrLevelNotFound, levelName, s.levelIDs())
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelName, err)
		}
	} else {
		level = s.levels.GetDefault()
		levelID = level.Name
	}

	sess, err := s.sessions.Create("", level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.LevelID = levelID

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move processes one movement intent for a session. Rejected turns are
// reported in the result, not as an error.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if req.Reset {
		if err := sess.Restart(); err != nil {
			return nil, fmt.Errorf("failed to restart game: %w", err)
		}
		events = append(events, restartEvent())
	}

	var (
		dest      engine.Coordinate
		direction engine.Direction
		turnErr   error
	)
	from := sess.Game.ActorPosition()
	if req.Direction != "" {
		direction, turnErr = engine.ParseDirection(req.Direction)
		dest = from.Step(direction)
	} else {
		dest = engine.Coordinate{Row: *req.Row, Column: *req.Column}
	}

	var step *StepInfo
	outcome := engine.Rejected
	if turnErr == nil {
		step, outcome, turnErr = s.play(ctx, sess, dest, 1)
	}

	state := s.stateOf(sess)
	result := &MoveResult{
		Outcome:   outcome,
		Success:   turnErr == nil,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Step:      step,
	}

	if turnErr != nil {
		result.Reason = turnErr.Error()
		if !errors.Is(turnErr, engine.ErrUnknownDirection) {
			result.AttemptedTo = attemptInfo(sess.Game.Board(), dest, turnErr)
		}
		return result, nil
	}

	result.Events = append(result.Events, stepEvents(step, state)...)
	return result, nil
}

// BulkMove executes up to engine.MaxBulkMoves directional moves in order and
// stops at the first rejected or terminal one
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
		Outcome:        sess.Game.Status(),
	}

	if reset {
		if err := sess.Restart(); err != nil {
			return nil, fmt.Errorf("failed to restart game: %w", err)
		}
		result.Events = append(result.Events, restartEvent())
		result.Outcome = engine.Ongoing
	}

	result.StartPos = sess.Game.ActorPosition()
	result.StartEnergy = sess.Game.Energy()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		from := sess.Game.ActorPosition()
		direction, err := engine.ParseDirection(move)
		if err != nil {
			s.stop(result, i+1, "unknown_direction", err)
			break
		}

		dest := from.Step(direction)
		step, outcome, err := s.play(ctx, sess, dest, i+1)
		if err != nil {
			code := "blocked"
			switch {
			case errors.Is(err, engine.ErrGameOver):
				code = "game_over"
			case errors.Is(err, engine.ErrIllegalMove):
				code = "illegal_move"
			}
			s.stop(result, i+1, code, err)
			result.AttemptedTo = attemptInfo(sess.Game.Board(), dest, err)
			break
		}

		result.MovesExecuted++
		result.Outcome = outcome
		result.Steps = append(result.Steps, *step)
		result.Events = append(result.Events, stepEvents(step, sess.Game.GetState())...)

		if outcome.Terminal() {
			result.StopReasonCode = string(outcome)
			if i+1 < len(moves) {
				result.StoppedReason = fmt.Sprintf("game %s on move %d", outcome, i+1)
				result.StoppedOnMove = i + 1
			}
			break
		}
	}

	end := s.stateOf(sess)
	result.GameState = end
	result.EndPos = end.Actor
	result.EndEnergy = end.Energy
	result.GameOver = end.GameOver()
	result.Message = end.Message
	result.PossibleMoves = sess.Game.PossibleMoves()
	result.EnergyRisk = end.EnergyRisk

	return result, nil
}

// Restart replaces the session's game with a fresh one
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Restart(); err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}
	return s.stateOf(sess), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return s.stateOf(sess), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	history := sess.Game.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint searches for the shortest winning sequence from the current position
// within the remaining energy and suggests its first move
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.RLock()
	sess, err := s.touch(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	game := sess.Game
	status := game.Status()
	energy := game.Energy()
	board := game.Board().Clone()
	possible := game.PossibleMoves()
	s.mu.RUnlock()

	hint := &HintResult{Energy: energy}
	switch status {
	case engine.Won:
		hint.Solvable = true
		hint.Message = "The game is already won. Restart to play again."
		return hint, nil
	case engine.Lost:
		hint.Message = "The game is lost. Restart to play again."
		return hint, nil
	}

	moves, err := solver.Solve(board, energy)
	switch {
	case errors.Is(err, solver.ErrNoSolution):
		hint.Message = fmt.Sprintf("No win is reachable with %d energy left. Restart to try again.", energy)
		return hint, nil
	case errors.Is(err, solver.ErrSearchLimit):
		hint.Message = "The position is too open to search. No hint available."
		return hint, nil
	case err != nil:
		return nil, fmt.Errorf("hint search failed: %w", err)
	}

	// Every target is covered already; any accepted move ends the game.
	if len(moves) == 0 && len(possible) > 0 {
		moves = possible[:1]
	}

	hint.Solvable = true
	hint.Moves = moves
	hint.MovesNeeded = len(moves)
	if len(moves) > 0 {
		hint.Direction = moves[0]
		actor, _ := board.ActorPosition()
		dest := actor.Step(moves[0])
		hint.Destination = &dest
		hint.Message = fmt.Sprintf("Move %s. A win is %d moves away.", moves[0], len(moves))
	} else {
		hint.Message = "No move is currently possible."
	}
	return hint, nil
}

// ListLevels returns the level catalogue
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelName string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelName)
}

// SaveLevel stores a level in the catalogue
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelName string, level *engine.Level) error {
	return s.levels.SaveLevel(levelName, level)
}

// Leaderboard returns the best won games of a level. Without a journal it is
// always empty.
func (s *gameServiceImpl) Leaderboard(ctx context.Context, levelName string, limit int) ([]*GameRecord, error) {
	if s.journal == nil {
		return []*GameRecord{}, nil
	}
	return s.journal.Leaderboard(ctx, levelName, limit)
}

// touch fetches a session and bumps its last access time
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// play runs one turn toward dest and records the game when it ends
func (s *gameServiceImpl) play(ctx context.Context, sess *Session, dest engine.Coordinate, idx int) (*StepInfo, engine.Outcome, error) {
	board := sess.Game.Board()
	from := sess.Game.ActorPosition()
	before := sess.Game.Energy()
	pushing := board.Get(dest) == engine.Box

	outcome, err := sess.Game.AttemptTurn(dest)
	if err != nil {
		return nil, outcome, err
	}

	direction, _ := sess.Game.LastDirection()
	step := &StepInfo{
		Idx:          idx,
		Dir:          direction,
		From:         from,
		To:           sess.Game.ActorPosition(),
		EnergyBefore: before,
		EnergyAfter:  sess.Game.Energy(),
		Pushed:       pushing,
		Outcome:      outcome,
	}

	if outcome.Terminal() {
		s.record(ctx, sess, outcome)
	}
	return step, outcome, nil
}

// record writes a finished game to the journal. Failures are logged only.
func (s *gameServiceImpl) record(ctx context.Context, sess *Session, outcome engine.Outcome) {
	if s.journal == nil {
		return
	}
	state := sess.Game.GetState()
	rec := GameRecord{
		SessionID:  sess.ID,
		Level:      sess.LevelID,
		Outcome:    outcome,
		Moves:      state.Moves,
		EnergyLeft: state.Energy,
		FinishedAt: time.Now(),
	}
	if err := s.journal.RecordGame(ctx, rec); err != nil {
		log.Printf("Warning: failed to record game for session %s: %v", sess.ID, err)
	}
}

func (s *gameServiceImpl) stop(result *BulkMoveResult, move int, code string, err error) {
	result.Success = false
	result.Outcome = engine.Rejected
	result.StopReasonCode = code
	result.StoppedOnMove = move
	result.StoppedReason = fmt.Sprintf("move %d rejected: %v", move, err)
}

func (s *gameServiceImpl) stateOf(sess *Session) *engine.GameState {
	state := sess.Game.GetState()
	state.EnergyRisk = engine.AnalyzeEnergyRisk(state)
	return state
}

// levelIDs lists the identifiers a session can be created with
func (s *gameServiceImpl) levelIDs() []string {
	infos, err := s.levels.ListLevels()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.LevelID)
	}
	return ids
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	state := sess.Game.GetState()
	state.EnergyRisk = engine.AnalyzeEnergyRisk(state)

	accessed, err := s.sessions.LastAccessed(sess.ID)
	if err != nil {
		accessed = sess.CreatedAt
	}
	return &SessionInfo{
		ID:             sess.ID,
		LevelName:      sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: accessed,
		GameState:      state,
		Level:          sess.Level,
	}
}

func attemptInfo(board *engine.Board, dest engine.Coordinate, err error) *AttemptInfo {
	return &AttemptInfo{
		Row:    dest.Row,
		Column: dest.Column,
		Cell:   board.Get(dest),
		Reason: err.Error(),
	}
}

func restartEvent() GameEvent {
	return GameEvent{
		Type:      "restart",
		Message:   "Game restarted from the level",
		Timestamp: time.Now(),
	}
}

// stepEvents describes an accepted move
func stepEvents(step *StepInfo, state *engine.GameState) []GameEvent {
	now := time.Now()
	to := step.To
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to %s, energy %d/%d", step.Dir, to, step.EnergyAfter, state.MaxEnergy),
		Timestamp: now,
		Position:  &to,
	}}

	if step.Pushed {
		box := to.Step(step.Dir)
		events = append(events, GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed boxes %s, %d/%d on target", step.Dir, state.BoxesOnTarget, len(state.Targets)),
			Timestamp: now,
			Position:  &box,
		})
	}

	switch step.Outcome {
	case engine.Won, engine.Lost:
		events = append(events, GameEvent{
			Type:      string(step.Outcome),
			Message:   state.Message,
			Timestamp: now,
		})
	}
	return events
}
