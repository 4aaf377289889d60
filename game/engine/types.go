package engine

import (
	"fmt"
	"strings"
)

// CellKind represents what occupies a board cell
type CellKind string

const (
	Empty  CellKind = "empty"
	Wall   CellKind = "wall"
	Box    CellKind = "box"
	Target CellKind = "target"
	Actor  CellKind = "actor"

	// Validation constants
	MinGridSize  = 1
	MaxGridSize  = 50
	MaxBulkMoves = 50
)

// IsTerrain reports whether the kind belongs to the fixed layer of the board
func (k CellKind) IsTerrain() bool {
	return k == Empty || k == Wall || k == Target
}

// IsEntity reports whether the kind belongs to the movable layer of the board
func (k CellKind) IsEntity() bool {
	return k == Box || k == Actor
}

// Char returns the level text character for the kind
func (k CellKind) Char() rune {
	switch k {
	case Wall:
		return '#'
	case Box:
		return 'C'
	case Target:
		return 'X'
	case Actor:
		return 'E'
	default:
		return ' '
	}
}

// KindFromChar maps a level text character to its CellKind
func KindFromChar(ch rune) (CellKind, error) {
	switch ch {
	case ' ':
		return Empty, nil
	case '#':
		return Wall, nil
	case 'E':
		return Actor, nil
	case 'C':
		return Box, nil
	case 'X':
		return Target, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCell, ch)
	}
}

// Coordinate is a (row, column) position; (0,0) is the upper left corner
type Coordinate struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Step returns the coordinate one cell away in the given direction
func (c Coordinate) Step(d Direction) Coordinate {
	switch d {
	case Up:
		return Coordinate{Row: c.Row - 1, Column: c.Column}
	case Down:
		return Coordinate{Row: c.Row + 1, Column: c.Column}
	case Left:
		return Coordinate{Row: c.Row, Column: c.Column - 1}
	case Right:
		return Coordinate{Row: c.Row, Column: c.Column + 1}
	}
	return c
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Column)
}

// Direction is one of the four orthogonal movement directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every legal direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection converts user input such as "UP" or "left" into a Direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// DirectionBetween returns the direction leading from one cell to an orthogonally
// adjacent one. Any other relative position is an illegal move.
func DirectionBetween(from, to Coordinate) (Direction, error) {
	dRow := to.Row - from.Row
	dCol := to.Column - from.Column

	switch {
	case dCol == 1 && dRow == 0:
		return Right, nil
	case dCol == -1 && dRow == 0:
		return Left, nil
	case dRow == -1 && dCol == 0:
		return Up, nil
	case dRow == 1 && dCol == 0:
		return Down, nil
	}
	return "", fmt.Errorf("%w: %s is not adjacent to %s", ErrIllegalMove, to, from)
}

// Outcome is the result of a single turn
type Outcome string

const (
	Won      Outcome = "won"
	Lost     Outcome = "lost"
	Ongoing  Outcome = "ongoing"
	Rejected Outcome = "rejected"
)

// Terminal reports whether no further turns are accepted after this outcome
func (o Outcome) Terminal() bool {
	return o == Won || o == Lost
}

// GameState is a JSON friendly snapshot of a game for presentation layers
type GameState struct {
	LevelName     string             `json:"level_name"`
	Rows          int                `json:"rows"`
	Columns       int                `json:"columns"`
	Layout        []string           `json:"layout"`
	Actor         Coordinate         `json:"actor"`
	Boxes         []Coordinate       `json:"boxes"`
	Targets       []Coordinate       `json:"targets"`
	BoxesOnTarget int                `json:"boxes_on_target"`
	Energy        int                `json:"energy"`
	MaxEnergy     int                `json:"max_energy"`
	Status        Outcome            `json:"status"`
	LastDirection Direction          `json:"last_direction,omitempty"`
	Moves         int                `json:"moves"`
	Message       string             `json:"message,omitempty"`
	EnergyRisk    string             `json:"energy_risk,omitempty"`
	MoveHistory   []MoveHistoryEntry `json:"move_history"`
}

// GameOver reports whether the snapshot is in a terminal state
func (s *GameState) GameOver() bool {
	return s.Status.Terminal()
}

// MoveHistoryEntry represents a single turn in the game history
type MoveHistoryEntry struct {
	Target     Coordinate `json:"target"`
	Direction  Direction  `json:"direction,omitempty"`
	From       Coordinate `json:"from"`
	To         Coordinate `json:"to"`
	Energy     int        `json:"energy"`
	Outcome    Outcome    `json:"outcome"`
	Reason     string     `json:"reason,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	MoveNumber int        `json:"move_number"`
}
