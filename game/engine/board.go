package engine

import (
	"sort"
	"strconv"
	"strings"
)

// Board keeps the static terrain apart from the movable entities so that an
// actor or box can pass over a target without the target being forgotten.
//
// Terrain is a rows x columns matrix of Empty, Wall and Target. Entities is a
// sparse map of Box and Actor positions. Lookups check entities first.
type Board struct {
	rows     int
	columns  int
	terrain  [][]CellKind
	entities map[Coordinate]CellKind
	forklift *Forklift
}

func newBoard(rows, columns int, forklift *Forklift) *Board {
	terrain := make([][]CellKind, rows)
	for r := range terrain {
		terrain[r] = make([]CellKind, columns)
		for c := range terrain[r] {
			terrain[r][c] = Empty
		}
	}

	return &Board{
		rows:     rows,
		columns:  columns,
		terrain:  terrain,
		entities: make(map[Coordinate]CellKind),
		forklift: forklift,
	}
}

// Rows returns the board height
func (b *Board) Rows() int {
	return b.rows
}

// Columns returns the board width
func (b *Board) Columns() int {
	return b.columns
}

// Forklift returns the energy resource attached to the board
func (b *Board) Forklift() *Forklift {
	return b.forklift
}

// InBounds reports whether c lies on the board
func (b *Board) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Column >= 0 && c.Column < b.columns
}

// place puts a kind on the board during construction. Fixed kinds go to the
// terrain, movable kinds go to the entity map over an Empty terrain cell.
func (b *Board) place(c Coordinate, kind CellKind) {
	if kind.IsTerrain() {
		b.terrain[c.Row][c.Column] = kind
		return
	}
	b.terrain[c.Row][c.Column] = Empty
	b.entities[c] = kind
}

// Get returns what occupies c. Cells outside the board read as Wall.
func (b *Board) Get(c Coordinate) CellKind {
	if !b.InBounds(c) {
		return Wall
	}
	if kind, ok := b.entities[c]; ok {
		return kind
	}
	return b.terrain[c.Row][c.Column]
}

// TerrainAt returns the fixed layer at c, ignoring entities
func (b *Board) TerrainAt(c Coordinate) CellKind {
	if !b.InBounds(c) {
		return Wall
	}
	return b.terrain[c.Row][c.Column]
}

// relocate moves the entity at from to to. Callers validate to.
func (b *Board) relocate(from, to Coordinate) {
	kind := b.entities[from]
	delete(b.entities, from)
	b.entities[to] = kind
}

// ActorPosition returns where the actor stands, if there is one
func (b *Board) ActorPosition() (Coordinate, bool) {
	for c, kind := range b.entities {
		if kind == Actor {
			return c, true
		}
	}
	return Coordinate{}, false
}

// PositionsOf returns every coordinate holding kind, terrain first in row-major
// order, then entities sorted the same way.
func (b *Board) PositionsOf(kind CellKind) []Coordinate {
	var result []Coordinate

	for r, row := range b.terrain {
		for c, k := range row {
			if k == kind {
				result = append(result, Coordinate{Row: r, Column: c})
			}
		}
	}

	var movable []Coordinate
	for c, k := range b.entities {
		if k == kind {
			movable = append(movable, c)
		}
	}
	sortCoordinates(movable)

	return append(result, movable...)
}

// Clone returns an independent copy of the board, forklift included
func (b *Board) Clone() *Board {
	clone := newBoard(b.rows, b.columns, NewForklift(b.forklift.Energy()))
	for r, row := range b.terrain {
		copy(clone.terrain[r], row)
	}
	for c, kind := range b.entities {
		clone.entities[c] = kind
	}
	return clone
}

// Entities is the movable layer of a board: where the actor stands and the
// box positions in row-major order
type Entities struct {
	Actor Coordinate
	Boxes []Coordinate
}

// Key identifies an entity layout
func (e Entities) Key() string {
	buf := make([]byte, 0, 8*(len(e.Boxes)+1))
	buf = appendCoordinate(buf, e.Actor)
	for _, c := range e.Boxes {
		buf = append(buf, '|')
		buf = appendCoordinate(buf, c)
	}
	return string(buf)
}

func appendCoordinate(buf []byte, c Coordinate) []byte {
	buf = strconv.AppendInt(buf, int64(c.Row), 10)
	buf = append(buf, ',')
	return strconv.AppendInt(buf, int64(c.Column), 10)
}

// Entities captures the movable layer without walking the terrain
func (b *Board) Entities() Entities {
	var e Entities
	for c, kind := range b.entities {
		switch kind {
		case Actor:
			e.Actor = c
		case Box:
			e.Boxes = append(e.Boxes, c)
		}
	}
	sortCoordinates(e.Boxes)
	return e
}

// SetEntities replaces the movable layer, keeping the terrain. Positions are
// not validated; e should come from Entities on a board with the same terrain.
func (b *Board) SetEntities(e Entities) {
	clear(b.entities)
	b.entities[e.Actor] = Actor
	for _, c := range e.Boxes {
		b.entities[c] = Box
	}
}

// Key identifies the entity layout (actor and boxes) independently of energy
func (b *Board) Key() string {
	return b.Entities().Key()
}

// Layout renders the board one string per row using the level characters.
// A box on a target renders '*' and an actor on a target renders '+'.
func (b *Board) Layout() []string {
	lines := make([]string, b.rows)
	for r := 0; r < b.rows; r++ {
		var sb strings.Builder
		for c := 0; c < b.columns; c++ {
			pos := Coordinate{Row: r, Column: c}
			kind := b.Get(pos)
			onTarget := b.terrain[r][c] == Target
			switch {
			case kind == Box && onTarget:
				sb.WriteRune('*')
			case kind == Actor && onTarget:
				sb.WriteRune('+')
			default:
				sb.WriteRune(kind.Char())
			}
		}
		lines[r] = sb.String()
	}
	return lines
}

// Solved reports whether every target is covered by a box
func (b *Board) Solved() bool {
	for _, target := range b.PositionsOf(Target) {
		if b.entities[target] != Box {
			return false
		}
	}
	return true
}

func sortCoordinates(cs []Coordinate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Row != cs[j].Row {
			return cs[i].Row < cs[j].Row
		}
		return cs[i].Column < cs[j].Column
	})
}
