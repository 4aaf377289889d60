package solver

import (
	"errors"
	"fmt"

	"github.com/wricardo/sokoban/game/engine"
)

var (
	ErrNoSolution  = errors.New("no solution within budget")
	ErrSearchLimit = errors.New("search limit reached")
)

// MaxStates bounds how many distinct positions a search may visit. Each
// visited position costs one entity snapshot and its key.
const MaxStates = 200000

// node is one reached position. The path is rebuilt through parent links.
type node struct {
	entities engine.Entities
	parent   int
	dir      engine.Direction
	depth    int
}

// Solve returns the shortest sequence of steps that covers every target,
// using at most budget moves. The board is not modified.
//
// The search runs on a single working copy of the board; only the movable
// layer of each position is stored.
//
// An already solved board yields an empty sequence.
func Solve(board *engine.Board, budget int) ([]engine.Direction, error) {
	if board == nil {
		return nil, fmt.Errorf("%w: nil board", ErrNoSolution)
	}
	if board.Solved() {
		return []engine.Direction{}, nil
	}
	if _, ok := board.ActorPosition(); !ok {
		return nil, engine.ErrNoActor
	}

	targets := board.PositionsOf(engine.Target)
	isTarget := make(map[engine.Coordinate]bool, len(targets))
	for _, t := range targets {
		isTarget[t] = true
	}

	work := board.Clone()
	mover := engine.NewMover()

	nodes := []node{{entities: work.Entities(), parent: -1}}
	visited := map[string]bool{nodes[0].entities.Key(): true}

	for head := 0; head < len(nodes); head++ {
		current := nodes[head]
		if current.depth >= budget {
			continue
		}

		for _, d := range engine.Directions {
			work.SetEntities(current.entities)
			if err := mover.Push(work, d); err != nil {
				continue
			}

			next := work.Entities()
			key := next.Key()
			if visited[key] {
				continue
			}
			visited[key] = true
			if len(visited) > MaxStates {
				return nil, fmt.Errorf("%w: visited %d states", ErrSearchLimit, MaxStates)
			}

			if covered(work, targets) {
				return append(pathTo(nodes, head), d), nil
			}
			if deadlocked(work, next.Boxes, isTarget) {
				continue
			}

			nodes = append(nodes, node{entities: next, parent: head, dir: d, depth: current.depth + 1})
		}
	}

	return nil, fmt.Errorf("%w: %d moves", ErrNoSolution, budget)
}

// pathTo walks parent links back to the start
func pathTo(nodes []node, i int) []engine.Direction {
	path := make([]engine.Direction, nodes[i].depth, nodes[i].depth+1)
	for ; nodes[i].parent >= 0; i = nodes[i].parent {
		path[nodes[i].depth-1] = nodes[i].dir
	}
	return path
}

func covered(b *engine.Board, targets []engine.Coordinate) bool {
	for _, t := range targets {
		if b.Get(t) != engine.Box {
			return false
		}
	}
	return true
}

// deadlocked reports whether a box off target is stuck in a corner, from
// where it can never be pushed again
func deadlocked(b *engine.Board, boxes []engine.Coordinate, isTarget map[engine.Coordinate]bool) bool {
	for _, box := range boxes {
		if isTarget[box] {
			continue
		}
		wall := func(d engine.Direction) bool {
			return b.TerrainAt(box.Step(d)) == engine.Wall
		}
		if (wall(engine.Up) || wall(engine.Down)) && (wall(engine.Left) || wall(engine.Right)) {
			return true
		}
	}
	return false
}

// Check reports whether the level can be won with its own energy
func Check(level *engine.Level) ([]engine.Direction, error) {
	board, err := engine.NewBoard(level)
	if err != nil {
		return nil, err
	}
	return Solve(board, level.MaxEnergy)
}
