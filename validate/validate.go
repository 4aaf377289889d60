// Package validate checks level files before they are published. It checks:
//   - the file decodes in its format (text, JSON, YAML, optionally zstd compressed)
//   - dimensions, characters, a single actor and matching box and target counts
//   - connectivity: every box and target lies in the forklift's region
//   - solvability: the solver wins the level within its own energy
package validate

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/solver"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// ValidateFile loads and validates a single level file
func ValidateFile(path string) ValidationResult {
	level, err := config.ReadLevelFile(path)
	if err != nil {
		result := ValidationResult{File: filepath.Base(path), Errors: []string{}}
		result.fail("Invalid level: %v", err)
		return result
	}

	result := ValidateLevel(level)
	result.File = filepath.Base(path)
	return result
}

// ValidateLevel runs the structural, connectivity and solvability checks on a
// decoded level
func ValidateLevel(level *engine.Level) ValidationResult {
	result := ValidationResult{
		File:   level.Name,
		Valid:  true,
		Errors: []string{},
	}

	board, err := engine.NewBoard(level)
	if err != nil {
		result.fail("Invalid level: %v", err)
		return result
	}

	connectivity := validateConnectivity(board)
	result.Errors = append(result.Errors, connectivity.Errors...)
	if !connectivity.Valid {
		result.Valid = false
		return result
	}

	moves, err := solver.Solve(board, level.MaxEnergy)
	switch {
	case errors.Is(err, solver.ErrNoSolution):
		result.fail("Unsolvable within %d energy", level.MaxEnergy)
	case errors.Is(err, solver.ErrSearchLimit):
		result.fail("Solver gave up after %d positions; solvability unknown", solver.MaxStates)
	case err != nil:
		result.fail("Solver failed: %v", err)
	default:
		result.info("Solvable in %d moves (energy %d, %d to spare)", len(moves), level.MaxEnergy, level.MaxEnergy-len(moves))
	}

	if result.Valid {
		result.info("Name: %s", level.Name)
		result.info("Grid: %dx%d", level.Rows, level.Columns)
		result.info("Boxes: %d", engine.CountKind(board, engine.Box))
	}
	return result
}

// validateConnectivity flood fills from the forklift over every cell that is
// not a wall. Boxes count as passable since they can be pushed away; a box or
// target outside the region can never be reached.
func validateConnectivity(board *engine.Board) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	start, ok := board.ActorPosition()
	if !ok {
		result.fail("No forklift found for connectivity test")
		return result
	}

	visited := map[engine.Coordinate]bool{start: true}
	queue := []engine.Coordinate{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			next := current.Step(d)
			if visited[next] || board.Get(next) == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	var unreachable []string
	for _, kind := range []engine.CellKind{engine.Box, engine.Target} {
		for _, c := range board.PositionsOf(kind) {
			if !visited[c] {
				unreachable = append(unreachable, fmt.Sprintf("%s at %s", kind, c))
			}
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d cells unreachable from the forklift", len(unreachable))
		for _, u := range unreachable {
			result.fail("Unreachable: %s", u)
		}
		return result
	}

	result.info("Connectivity: all boxes and targets reachable")
	return result
}

// Report prints a concise report for each result and returns whether they
// were all valid
func Report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		fmt.Fprintln(w, "❌ INVALID")
		allValid = false
		for _, err := range result.Errors {
			if !strings.HasPrefix(err, "✓") {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All levels are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid
}
