package engine

import "fmt"

// Mover resolves movement on a board. Collision rules live here rather than on
// the board objects, so adding a new interactive kind means extending the
// switch in tryShift.
type Mover struct {
	lastDirection Direction
}

// NewMover creates a mover with no recorded direction
func NewMover() *Mover {
	return &Mover{}
}

// LastDirection returns the direction of the most recent successful move.
// It only drives which way the actor is drawn facing.
func (m *Mover) LastDirection() (Direction, bool) {
	return m.lastDirection, m.lastDirection != ""
}

// AttemptMove moves the actor toward dest, which must be one of its four
// orthogonal neighbours, pushing any chain of boxes in the way. The board is
// left untouched unless the whole move succeeds.
func (m *Mover) AttemptMove(b *Board, dest Coordinate) error {
	start, ok := b.ActorPosition()
	if !ok {
		return ErrNoActor
	}

	direction, err := DirectionBetween(start, dest)
	if err != nil {
		return err
	}

	return m.shiftActor(b, start, direction)
}

// Push moves the actor one cell in the given direction
func (m *Mover) Push(b *Board, direction Direction) error {
	start, ok := b.ActorPosition()
	if !ok {
		return ErrNoActor
	}
	if _, err := ParseDirection(string(direction)); err != nil {
		return err
	}

	return m.shiftActor(b, start, direction)
}

func (m *Mover) shiftActor(b *Board, start Coordinate, direction Direction) error {
	if !m.tryShift(b, start, direction) {
		return fmt.Errorf("%w: moving %s from %s", ErrBlocked, direction, start)
	}
	m.lastDirection = direction
	return nil
}

// tryShift moves the object at pos one cell in direction. A box ahead is
// pushed first; the object at pos only moves once everything ahead of it has.
func (m *Mover) tryShift(b *Board, pos Coordinate, direction Direction) bool {
	next := pos.Step(direction)

	switch b.Get(next) {
	case Empty, Target:
		b.relocate(pos, next)
		return true

	case Box:
		if !m.tryShift(b, next, direction) {
			return false
		}
		b.relocate(pos, next)
		return true

	case Wall:
		return false
	}

	return false
}
