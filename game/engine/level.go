package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Level describes a puzzle before it becomes a board.
//
// The text form is:
//
//	<max energy>
//	<rows>
//	<columns>
//	<rows lines of exactly <columns> characters>
type Level struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	MaxEnergy   int      `json:"max_energy" yaml:"max_energy"`
	Rows        int      `json:"rows" yaml:"rows"`
	Columns     int      `json:"columns" yaml:"columns"`
	Layout      []string `json:"layout" yaml:"layout"`
}

// ParseLevel reads a level in the text format
func ParseLevel(r io.Reader) (*Level, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}

	header := []string{"max energy", "rows", "columns"}
	if len(lines) < len(header) {
		return nil, fmt.Errorf("%w: missing header, want %d lines, got %d", ErrInvalidLevel, len(header), len(lines))
	}

	values := make([]int, len(header))
	for i, name := range header {
		v, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d (%s) is not an integer: %q", ErrInvalidLevel, i+1, name, lines[i])
		}
		values[i] = v
	}

	level := &Level{
		MaxEnergy: values[0],
		Rows:      values[1],
		Columns:   values[2],
	}

	grid := lines[len(header):]
	if level.Rows >= 0 && len(grid) > level.Rows {
		grid = grid[:level.Rows]
	}
	level.Layout = grid

	if err := level.Validate(); err != nil {
		return nil, err
	}
	return level, nil
}

// Validate checks dimensions, characters, the actor count and that boxes and
// targets pair up. It is the load-time gate; nothing re-checks later.
func (l *Level) Validate() error {
	_, err := l.build()
	return err
}

// WriteText writes the level in the text format read by ParseLevel
func (l *Level) WriteText(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\n%d\n%d\n", l.MaxEnergy, l.Rows, l.Columns)
	for _, row := range l.Layout {
		buf.WriteString(row)
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// NewBoard builds the initial board for a level
func NewBoard(l *Level) (*Board, error) {
	return l.build()
}

func (l *Level) build() (*Board, error) {
	if l.MaxEnergy < 0 {
		return nil, fmt.Errorf("%w: max energy must not be negative, got %d", ErrInvalidLevel, l.MaxEnergy)
	}
	if l.Rows < MinGridSize || l.Rows > MaxGridSize {
		return nil, fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidLevel, MinGridSize, MaxGridSize, l.Rows)
	}
	if l.Columns < MinGridSize || l.Columns > MaxGridSize {
		return nil, fmt.Errorf("%w: columns must be between %d and %d, got %d", ErrInvalidLevel, MinGridSize, MaxGridSize, l.Columns)
	}
	if len(l.Layout) != l.Rows {
		return nil, fmt.Errorf("%w: layout must have %d rows, got %d", ErrInvalidLevel, l.Rows, len(l.Layout))
	}

	board := newBoard(l.Rows, l.Columns, NewForklift(l.MaxEnergy))
	actorPlaced := false

	for r, line := range l.Layout {
		row := []rune(line)
		if len(row) != l.Columns {
			return nil, fmt.Errorf("%w: row %d must have %d characters, got %d", ErrInvalidLevel, r+1, l.Columns, len(row))
		}

		for c, ch := range row {
			kind, err := KindFromChar(ch)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", r+1, c+1, err)
			}
			if kind == Actor {
				if actorPlaced {
					return nil, fmt.Errorf("%w: second actor at row %d, column %d", ErrMultipleActors, r+1, c+1)
				}
				actorPlaced = true
			}
			board.place(Coordinate{Row: r, Column: c}, kind)
		}
	}

	if _, ok := board.ActorPosition(); !ok {
		return nil, ErrNoActor
	}

	boxes := len(board.PositionsOf(Box))
	targets := len(board.PositionsOf(Target))
	if boxes != targets {
		return nil, fmt.Errorf("%w: %d boxes, %d targets", ErrBoxTargetMismatch, boxes, targets)
	}

	return board, nil
}
