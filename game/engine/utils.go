package engine

// ManhattanDistance calculates the Manhattan distance between two coordinates
func ManhattanDistance(from, to Coordinate) int {
	dRow := from.Row - to.Row
	if dRow < 0 {
		dRow = -dRow
	}
	dCol := from.Column - to.Column
	if dCol < 0 {
		dCol = -dCol
	}
	return dRow + dCol
}

// MinimumPushes is a lower bound on the moves still needed to win: every box
// off a target must travel at least as far as its nearest target.
func MinimumPushes(state *GameState) int {
	onTarget := make(map[Coordinate]bool, len(state.Targets))
	for _, t := range state.Targets {
		onTarget[t] = true
	}

	total := 0
	for _, box := range state.Boxes {
		if onTarget[box] {
			continue
		}
		nearest := -1
		for _, t := range state.Targets {
			if d := ManhattanDistance(box, t); nearest == -1 || d < nearest {
				nearest = d
			}
		}
		if nearest > 0 {
			total += nearest
		}
	}
	return total
}

// AnalyzeEnergyRisk assesses whether the remaining energy can still cover the
// boxes left to push
func AnalyzeEnergyRisk(state *GameState) string {
	if state.Status == Won {
		return "SOLVED: All targets covered"
	}
	if state.Energy < 0 {
		return "CRITICAL: Energy exhausted!"
	}

	needed := MinimumPushes(state)
	switch {
	case state.Energy < needed:
		return "DANGER: Not enough energy to cover the remaining targets!"
	case state.Energy <= needed+2:
		return "CAUTION: Energy is tight, avoid wasted moves"
	case state.MaxEnergy > 0 && state.Energy <= state.MaxEnergy/3:
		return "LOW: Plan the remaining pushes carefully"
	}
	return "SAFE: Energy sufficient"
}

// CountKind counts the cells of a kind on the board
func CountKind(b *Board, kind CellKind) int {
	return len(b.PositionsOf(kind))
}
