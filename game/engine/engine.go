package engine

import (
	"errors"
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	GetState() *GameState
	Status() Outcome
	Energy() int
	ActorPosition() Coordinate

	// Movement operations
	AttemptTurn(dest Coordinate) (Outcome, error)
	Step(direction Direction) (Outcome, error)
	CanStep(direction Direction) bool
	PossibleMoves() []Direction

	// Level
	Level() *Level
	Board() *Board

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

var _ Engine = (*Game)(nil)

// Game runs one session of a level: it owns the board and the mover, applies
// the energy cost of each move and decides when the game is won or lost.
// Restarting means building a new Game from the same level.
type Game struct {
	level   *Level
	board   *Board
	mover   *Mover
	status  Outcome
	moves   int
	message string
	history []MoveHistoryEntry
}

// NewGame builds a fresh game for the level
func NewGame(level *Level) (*Game, error) {
	if level == nil {
		return nil, fmt.Errorf("%w: level cannot be nil", ErrInvalidLevel)
	}
	board, err := NewBoard(level)
	if err != nil {
		return nil, err
	}

	return &Game{
		level:   level,
		board:   board,
		mover:   NewMover(),
		status:  Ongoing,
		message: "Push every box onto a target before your energy runs out.",
		history: []MoveHistoryEntry{},
	}, nil
}

// Level returns the level the game was built from
func (g *Game) Level() *Level {
	return g.level
}

// Board returns the live board. Callers must not mutate it.
func (g *Game) Board() *Board {
	return g.board
}

// Status returns Ongoing until a turn returns Won or Lost
func (g *Game) Status() Outcome {
	return g.status
}

// Energy returns the forklift's remaining energy
func (g *Game) Energy() int {
	return g.board.Forklift().Energy()
}

// ActorPosition returns where the actor stands
func (g *Game) ActorPosition() Coordinate {
	return g.actor()
}

// LastDirection returns which way the actor last moved
func (g *Game) LastDirection() (Direction, bool) {
	return g.mover.LastDirection()
}

// AttemptTurn processes one movement intent toward dest.
//
// A rejected turn (illegal destination, blocked chain or finished game)
// changes nothing and returns Rejected with the reason. A successful move
// costs one unit of energy and is then evaluated: Won when every target holds
// a box and energy is not negative, Lost when energy is negative, otherwise
// Ongoing.
func (g *Game) AttemptTurn(dest Coordinate) (Outcome, error) {
	from := g.actor()

	if g.status.Terminal() {
		g.record(dest, "", from, Rejected, ErrGameOver)
		return Rejected, ErrGameOver
	}

	if err := g.mover.AttemptMove(g.board, dest); err != nil {
		if errors.Is(err, ErrNoActor) {
			panic("engine: board lost its actor")
		}
		g.record(dest, "", from, Rejected, err)
		return Rejected, err
	}

	g.board.Forklift().DecreaseEnergy()
	g.moves++

	outcome := g.evaluate()
	direction, _ := g.mover.LastDirection()
	g.record(dest, direction, from, outcome, nil)

	if outcome.Terminal() {
		g.status = outcome
	}
	return outcome, nil
}

// Step processes a movement intent expressed as a direction
func (g *Game) Step(direction Direction) (Outcome, error) {
	d, err := ParseDirection(string(direction))
	if err != nil {
		return Rejected, err
	}
	return g.AttemptTurn(g.actor().Step(d))
}

// CanStep reports whether a step in direction would currently be accepted
func (g *Game) CanStep(direction Direction) bool {
	if g.status.Terminal() {
		return false
	}
	probe := g.board.Clone()
	return NewMover().Push(probe, direction) == nil
}

// PossibleMoves returns every direction a step would currently succeed in
func (g *Game) PossibleMoves() []Direction {
	possible := []Direction{}
	for _, d := range Directions {
		if g.CanStep(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// GetMoveHistory returns every turn processed so far, rejected ones included
func (g *Game) GetMoveHistory() []MoveHistoryEntry {
	return g.history
}

// GetLastMove returns the last processed turn, or nil if none
func (g *Game) GetLastMove() *MoveHistoryEntry {
	if len(g.history) == 0 {
		return nil
	}
	return &g.history[len(g.history)-1]
}

// GetState returns a snapshot of the game for presentation
func (g *Game) GetState() *GameState {
	boxes := g.board.PositionsOf(Box)
	targets := g.board.PositionsOf(Target)

	onTarget := 0
	for _, b := range boxes {
		if g.board.TerrainAt(b) == Target {
			onTarget++
		}
	}

	direction, _ := g.mover.LastDirection()
	history := make([]MoveHistoryEntry, len(g.history))
	copy(history, g.history)

	return &GameState{
		LevelName:     g.level.Name,
		Rows:          g.board.Rows(),
		Columns:       g.board.Columns(),
		Layout:        g.board.Layout(),
		Actor:         g.actor(),
		Boxes:         nonNil(boxes),
		Targets:       nonNil(targets),
		BoxesOnTarget: onTarget,
		Energy:        g.Energy(),
		MaxEnergy:     g.level.MaxEnergy,
		Status:        g.status,
		LastDirection: direction,
		Moves:         g.moves,
		Message:       g.message,
		MoveHistory:   history,
	}
}

func (g *Game) evaluate() Outcome {
	energy := g.Energy()

	switch {
	case g.board.Solved() && energy >= 0:
		g.message = fmt.Sprintf("You won the game in %d moves with %d energy left!", g.moves, energy)
		return Won
	case energy < 0:
		g.message = "Out of energy. You lost the game!"
		return Lost
	default:
		g.message = fmt.Sprintf("Energy: %d/%d", energy, g.level.MaxEnergy)
		return Ongoing
	}
}

func (g *Game) actor() Coordinate {
	pos, ok := g.board.ActorPosition()
	if !ok {
		panic("engine: board lost its actor")
	}
	return pos
}

func (g *Game) record(dest Coordinate, direction Direction, from Coordinate, outcome Outcome, err error) {
	entry := MoveHistoryEntry{
		Target:     dest,
		Direction:  direction,
		From:       from,
		To:         g.actor(),
		Energy:     g.Energy(),
		Outcome:    outcome,
		Timestamp:  time.Now().Unix(),
		MoveNumber: len(g.history) + 1,
	}
	if err != nil {
		entry.Reason = err.Error()
	}
	g.history = append(g.history, entry)
}

func nonNil(cs []Coordinate) []Coordinate {
	if cs == nil {
		return []Coordinate{}
	}
	return cs
}
